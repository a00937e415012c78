package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/markdave123-py/Slidewise/internal/core"
	"github.com/markdave123-py/Slidewise/internal/models"
)

const (
	defaultPerPage = 20
	maxPerPage     = 200
)

type ImageHandler struct {
	searcher core.ImageSearcher
}

// NewImageHandler builds the search proxy. A nil searcher means no Pixabay key.
func NewImageHandler(searcher core.ImageSearcher) *ImageHandler {
	return &ImageHandler{searcher: searcher}
}

func (h *ImageHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, `Query parameter "q" is required`)
		return
	}
	if h.searcher == nil {
		writeError(w, http.StatusInternalServerError, "Pixabay API key not configured")
		return
	}
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	res, err := h.searcher.Search(r.Context(), q, page, perPage)
	if err != nil {
		writeServiceError(w, r, err, "No images found", "Failed to search images")
		return
	}
	if res.Images == nil {
		res.Images = []models.ImageCandidate{}
	}
	writeJSON(w, http.StatusOK, res)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
