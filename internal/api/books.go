package api

import (
	"net/http"

	"github.com/safar/bookstore/internal/database"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.ListBooks(r.Context())
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch books")
		return
	}
	s.writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", database.ErrBookNotFound)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch book")
		return
	}

	book, err := s.catalog.GetBook(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "Failed to fetch book")
		return
	}
	s.writeJSON(w, http.StatusOK, book)
}
