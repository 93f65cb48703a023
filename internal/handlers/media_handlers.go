package handlers

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"swampbook/internal/models"
	"swampbook/internal/utils"
)

// Upload limit: 5 MB per file.
const maxUploadBytes = 5 << 20

// Avatar thumbnails are square, fitted into this many pixels.
const thumbnailSize = 256

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// storeUpload writes an uploaded image under UPLOAD_DIR/<subdir>/ and
// returns its public URL.
func (s *Server) storeUpload(file multipart.File, header *multipart.FileHeader, subdir string) (string, *utils.AppError) {
	if header.Size > maxUploadBytes {
		return "", utils.NewAppError(utils.ErrInvalidInput, "File exceeds the 5MB limit", nil)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", utils.NewAppError(utils.ErrInvalidInput, "Only jpeg, png and gif images are allowed", nil)
	}

	dir := filepath.Join(s.Config.Server.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", utils.NewAppError(utils.ErrDatabase, "Failed to prepare upload directory", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", utils.NewAppError(utils.ErrDatabase, "Failed to store file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(file, maxUploadBytes)); err != nil {
		os.Remove(path)
		return "", utils.NewAppError(utils.ErrDatabase, "Failed to store file", err)
	}

	return "/uploads/" + subdir + "/" + name, nil
}

// makeThumbnail renders a square thumbnail next to the original and returns
// its URL. Failure is not fatal; the full image still works.
func (s *Server) makeThumbnail(url string) string {
	rel := strings.TrimPrefix(url, "/uploads/")
	src := filepath.Join(s.Config.Server.UploadDir, filepath.FromSlash(rel))

	img, err := imaging.Open(src)
	if err != nil {
		log.Printf("Failed to open %s for thumbnailing: %v", src, err)
		return ""
	}
	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)

	ext := filepath.Ext(src)
	dst := strings.TrimSuffix(src, ext) + "_thumb" + ext
	if err := imaging.Save(thumb, dst); err != nil {
		log.Printf("Failed to save thumbnail %s: %v", dst, err)
		return ""
	}
	return strings.TrimSuffix(url, ext) + "_thumb" + ext
}

// HandleUploadMedia stores an image and records it. Avatar and cover uploads
// also update the owner's profile; avatars get a thumbnail.
func (s *Server) HandleUploadMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		mediaType := r.FormValue("type")
		switch mediaType {
		case models.MediaTypeAvatar, models.MediaTypeCover, models.MediaTypePost:
		default:
			s.writeError(w, http.StatusBadRequest, "type must be avatar, cover or post")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		url, appErr := s.storeUpload(file, header, mediaType+"s")
		if appErr != nil {
			s.writeAppError(w, appErr)
			return
		}

		thumbnailURL := ""
		if mediaType == models.MediaTypeAvatar {
			thumbnailURL = s.makeThumbnail(url)
		}

		switch mediaType {
		case models.MediaTypeAvatar:
			if err := s.Store.SetUserPicture(r.Context(), userID, "profilePicture", url); err != nil {
				log.Printf("Failed to set profile picture for user %s: %v", userID, err)
			}
		case models.MediaTypeCover:
			if err := s.Store.SetUserPicture(r.Context(), userID, "coverPhoto", url); err != nil {
				log.Printf("Failed to set cover photo for user %s: %v", userID, err)
			}
		}

		media := &models.Media{
			ID:           uuid.New(),
			UserID:       userID,
			Type:         mediaType,
			URL:          url,
			ThumbnailURL: thumbnailURL,
			Filename:     header.Filename,
			Size:         header.Size,
			Description:  r.FormValue("description"),
			Tags:         splitTags(r.FormValue("tags")),
			CreatedAt:    time.Now(),
		}
		if err := s.Store.SaveMedia(r.Context(), media); err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to record upload")
			return
		}

		s.writeJSON(w, http.StatusCreated, media)
	}
}

// splitTags turns a comma-separated form value into a clean tag list.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// HandleUserMedia lists a user's uploads
func (s *Server) HandleUserMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		items, err := s.Store.ListUserMedia(r.Context(), userID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to get media")
			return
		}
		if items == nil {
			items = []*models.Media{}
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

// HandleGetMedia returns a single upload record
func (s *Server) HandleGetMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		media, err := s.Store.GetMedia(r.Context(), mediaID)
		if err != nil {
			if appErr, isApp := err.(*utils.AppError); isApp {
				s.writeAppError(w, appErr)
				return
			}
			s.writeError(w, http.StatusInternalServerError, "Failed to get media")
			return
		}
		s.writeJSON(w, http.StatusOK, media)
	}
}

// MediaUpdateRequest carries the editable media fields
type MediaUpdateRequest struct {
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// HandleUpdateMedia edits the caller's media description and tags
func (s *Server) HandleUpdateMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		mediaID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req MediaUpdateRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}

		if s.ownedMedia(w, r, mediaID, userID) == nil {
			return
		}
		update := &models.MediaUpdate{Description: req.Description, Tags: req.Tags}
		if err := s.Store.UpdateMedia(r.Context(), mediaID, update); err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to update media")
			return
		}
		updated, err := s.Store.GetMedia(r.Context(), mediaID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to reload media")
			return
		}
		s.writeJSON(w, http.StatusOK, updated)
	}
}

// HandleDeleteMedia removes the caller's upload record and its files
func (s *Server) HandleDeleteMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.callerID(w, r)
		if !ok {
			return
		}
		mediaID, ok := s.pathUUID(w, r, "id")
		if !ok {
			return
		}

		media := s.ownedMedia(w, r, mediaID, userID)
		if media == nil {
			return
		}
		if err := s.Store.DeleteMedia(r.Context(), mediaID); err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to delete media")
			return
		}
		s.removeUpload(media.URL)
		if media.ThumbnailURL != "" {
			s.removeUpload(media.ThumbnailURL)
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ownedMedia loads a record and enforces that the caller owns it. On failure
// the response is already written and nil is returned.
func (s *Server) ownedMedia(w http.ResponseWriter, r *http.Request, mediaID, userID uuid.UUID) *models.Media {
	media, err := s.Store.GetMedia(r.Context(), mediaID)
	if err != nil {
		if appErr, isApp := err.(*utils.AppError); isApp {
			s.writeAppError(w, appErr)
		} else {
			s.writeError(w, http.StatusInternalServerError, "Failed to get media")
		}
		return nil
	}
	if media.UserID != userID {
		s.writeError(w, http.StatusForbidden, "Not authorized to modify this media")
		return nil
	}
	return media
}

// HandleSearchMediaByTags finds uploads carrying any of the requested tags
func (s *Server) HandleSearchMediaByTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags := splitTags(r.URL.Query().Get("tags"))
		if len(tags) == 0 {
			s.writeError(w, http.StatusBadRequest, "Tags parameter is required")
			return
		}
		items, err := s.Store.SearchMediaByTags(r.Context(), tags)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "Failed to search media")
			return
		}
		if items == nil {
			items = []*models.Media{}
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}
