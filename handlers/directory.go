package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mokokaf/interactions-api/canonical"
	"github.com/mokokaf/interactions-api/directory"
	"github.com/mokokaf/interactions-api/logging"
)

const catalogPageSize = 20

// ServePagedCatalog returns one page of the drug catalog.
func ServePagedCatalog(container *directory.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				logging.Warn("Unusual user input", "page", raw)
				RespondWithError(w, http.StatusBadRequest, "numéro de page invalide")
				return
			}
			page = parsed
		}

		catalog := container.GetCatalog()
		start := (page - 1) * catalogPageSize
		end := start + catalogPageSize

		if start >= len(catalog) && page != 1 {
			RespondWithError(w, http.StatusNotFound, "page introuvable")
			return
		}
		if end > len(catalog) {
			end = len(catalog)
		}
		if start > len(catalog) {
			start = len(catalog)
		}

		totalItems := len(catalog)
		maxPage := (totalItems + catalogPageSize - 1) / catalogPageSize

		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"data":       catalog[start:end],
			"page":       page,
			"pageSize":   catalogPageSize,
			"totalItems": totalItems,
			"maxPage":    maxPage,
		})
	}
}

// SearchCatalog returns catalog entries whose name or ingredients contain the
// query, compared accent- and case-insensitively.
func SearchCatalog(container *directory.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := canonical.NormalizeName(chi.URLParam(r, "query"))
		if query == "" {
			RespondWithError(w, http.StatusBadRequest, "terme de recherche manquant")
			return
		}

		var results []directory.CatalogEntry
		for _, entry := range container.GetCatalog() {
			if matchesCatalogEntry(entry, query) {
				results = append(results, entry)
			}
		}

		if len(results) == 0 {
			RespondWithError(w, http.StatusNotFound, "aucun médicament trouvé")
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

func matchesCatalogEntry(entry directory.CatalogEntry, query string) bool {
	if strings.Contains(canonical.NormalizeName(entry.Name), query) {
		return true
	}
	for _, ing := range entry.Ingredients {
		if strings.Contains(canonical.NormalizeName(ing), query) {
			return true
		}
	}
	return false
}

// ServePharmacies returns on-duty pharmacies, filtered by the optional city
// query parameter.
func ServePharmacies(container *directory.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pharmacies := container.GetPharmacies()

		city := canonical.NormalizeName(r.URL.Query().Get("city"))
		if city == "" {
			RespondWithJSON(w, http.StatusOK, pharmacies)
			return
		}

		var results []directory.Pharmacy
		for _, p := range pharmacies {
			if strings.Contains(canonical.NormalizeName(p.City), city) {
				results = append(results, p)
			}
		}

		if len(results) == 0 {
			RespondWithError(w, http.StatusNotFound, "aucune pharmacie de garde trouvée pour cette ville")
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}
