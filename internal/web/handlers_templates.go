package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/gazette-import/internal/core"
)

var templateContentTypes = map[core.FileFormat]string{
	core.FormatCSV:  "text/csv",
	core.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleDownloadTemplate serves the example import file in the given format.
func (s *Server) handleDownloadTemplate(format core.FileFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := core.TemplateBytes(format)
		if err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", templateContentTypes[format])
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="gazette_notices_template.%s"`, format))
		w.Write(data)
	}
}
