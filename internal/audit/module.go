package audit

import (
	"encoding/json"
	"strconv"
	"time"

	apphttp "medicore_backend/internal/http"
	"medicore_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// EntryResponse is an audit entry as exposed over HTTP.
type EntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    *string        `json:"userId,omitempty"`
	TargetID  *string        `json:"targetId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Module exposes the audit trail read endpoint.
type Module struct {
	repo *Repository
}

func NewModule(repo *Repository) *Module {
	return &Module{repo: repo}
}

func (m *Module) Name() string {
	return "audit"
}

// RegisterRoutes mounts the audit routes.
func (m *Module) RegisterRoutes(rc *apphttp.RouterContext) {
	rc.V1.GET("/audit", m.List)
}

func (m *Module) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := m.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := EntryResponse{
			ID:        entry.ID.String(),
			Action:    entry.Action,
			UserID:    entry.UserID,
			TargetID:  entry.TargetID,
			Timestamp: entry.Timestamp,
		}
		if len(entry.Details) > 0 {
			// Details are stored as raw jsonb; decode failures surface as
			// an empty map rather than failing the listing.
			_ = json.Unmarshal(entry.Details, &resp.Details)
		}
		out = append(out, resp)
	}

	httpkit.OK(c, out)
}
