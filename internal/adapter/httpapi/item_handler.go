package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi/middleware"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/usecase"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
)

const (
	maxImageBytes  = 10 << 20
	maxFormMemory  = 2 << 20
	imageFormField = "image"
)

type ItemHandler struct {
	items  ItemService
	logger *logger.Logger
}

func NewItemHandler(items ItemService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: log.Named("ItemHandler")}
}

// HandleCreate: POST /posts (multipart/form-data)
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, h.logger, "CreateItem", domain.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, "CreateItem", invalid("upload exceeds the size limit"))
			return
		}
		writeError(w, h.logger, "CreateItem", invalid("request must be multipart/form-data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in, err := itemInput(r.MultipartForm)
	if err != nil {
		writeError(w, h.logger, "CreateItem", err)
		return
	}

	file, header, err := r.FormFile(imageFormField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		writeError(w, h.logger, "CreateItem", invalid("image could not be read"))
		return
	default:
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			writeError(w, h.logger, "CreateItem", invalid("image must be an image file"))
			return
		}
		in.Image = &usecase.ImageUpload{
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Data:        file,
		}
	}

	item, err := h.items.Create(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, h.logger, "CreateItem", err)
		return
	}
	h.logger.Debug("Item created", zap.String("item_id", item.ID.Hex()))
	writeJSON(w, h.logger, http.StatusCreated, ItemEnvelope{Success: true, Post: toItem(item)})
}

func itemInput(form *multipart.Form) (usecase.CreateItemInput, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	in := usecase.CreateItemInput{
		Title:       value("title"),
		Description: value("description"),
		ItemType:    value("itemType"),
		Tags:        splitList(form.Value["tags"]),
		Sizes:       splitList(form.Value["sizes"]),
	}
	raw := strings.TrimSpace(value("price"))
	if raw == "" {
		return in, invalid("price is required")
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return in, invalid("price must be a number")
	}
	in.Price = price
	return in, nil
}

// HandleGet: GET /posts/{id}
func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "GetItem", err)
		return
	}
	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "GetItem", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ItemEnvelope{Success: true, Post: toItem(item)})
}
