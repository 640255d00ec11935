// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/ManuGH/canplay/internal/capability"
)

// CatalogContainer is a container alias with its live enablement.
type CatalogContainer struct {
	capability.ContainerEntry
	Enabled bool `json:"enabled"`
}

// CatalogCodec is a codec entry with its live enablement.
type CatalogCodec struct {
	capability.CodecEntry
	Enabled bool `json:"enabled"`
}

type CatalogResponse struct {
	Containers []CatalogContainer `json:"containers"`
	Codecs     []CatalogCodec     `json:"codecs"`
}

// GET /api/v1/catalog
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, BuildCatalog(s.resolver.Registry(), s.flags))
}

// BuildCatalog lists every registry entry with its enablement under f.
func BuildCatalog(reg *capability.Registry, f capability.Flags) CatalogResponse {
	enabled := func(flag string) bool { return flag == "" || f.Flag(flag) }

	resp := CatalogResponse{}
	for _, c := range reg.Containers() {
		resp.Containers = append(resp.Containers, CatalogContainer{ContainerEntry: c, Enabled: enabled(c.Flag)})
	}
	for _, c := range reg.Codecs() {
		resp.Codecs = append(resp.Codecs, CatalogCodec{CodecEntry: c, Enabled: enabled(c.Flag)})
	}
	return resp
}
