package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/dataservice"
	"github.com/joestump/campaign-desk/internal/metrics"
)

const errFetchUsers = "Failed to fetch users"

// usersAPIHandler forwards user list requests to the data service.
type usersAPIHandler struct {
	users dataservice.UserLister
	log   *zap.Logger
}

func registerUserRoutes(r chi.Router, users dataservice.UserLister, log *zap.Logger) {
	h := &usersAPIHandler{users: users, log: log}
	r.Get("/users", h.List)
}

// List returns the data service's user list unchanged.
//
// @Summary      List users
// @Description  Passthrough to the data service. No parameters are recognized.
// @Tags         users
// @Produce      json
// @Success      200  {array}   object
// @Failure      500  {object}  ErrorResponse
// @Router       /users [get]
func (h *usersAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := h.users.ListUsers(r.Context())
	metrics.ProxyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProxyRequestsTotal.WithLabelValues("error").Inc()
		h.log.Error("fetch users failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, errFetchUsers)
		return
	}
	metrics.ProxyRequestsTotal.WithLabelValues("ok").Inc()
	writeRawJSON(w, http.StatusOK, body)
}
