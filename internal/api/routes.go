package api

import (
	"net/http"

	"github.com/plantline/reckon/internal/config"
	"github.com/plantline/reckon/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Operators.Handler().Routes(),
		domain.Records.Handler().Routes(),
		domain.Invoices.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
	)
}
