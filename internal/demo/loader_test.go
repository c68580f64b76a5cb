package demo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-pms/internal/model"
)

type fixtureItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestLoadListBareArrayAndEnvelope(t *testing.T) {
	loader := NewFS(fstest.MapFS{
		"bare.json":     {Data: []byte(`[{"id":"1","name":"a"},{"id":"2","name":"b"}]`)},
		"envelope.json": {Data: []byte(`{"data":[{"id":"3","name":"c"}],"generatedAt":"2024-01-01"}`)},
	})

	bare := LoadList[fixtureItem](context.Background(), loader, "/demo/bare.json")
	require.Len(t, bare, 2)
	assert.Equal(t, "b", bare[1].Name)

	wrapped := LoadList[fixtureItem](context.Background(), loader, "/demo/envelope.json")
	require.Len(t, wrapped, 1)
	assert.Equal(t, "3", wrapped[0].ID)
}

func TestLoadListFailuresDegradeToEmpty(t *testing.T) {
	loader := NewFS(fstest.MapFS{
		"broken.json": {Data: []byte(`[{"id":`)},
		"object.json": {Data: []byte(`{"items":[]}`)},
	})

	for _, path := range []string{"/demo/missing.json", "/demo/broken.json", "/demo/object.json"} {
		items := LoadList[fixtureItem](context.Background(), loader, path)
		assert.NotNil(t, items, path)
		assert.Empty(t, items, path)
	}

	assert.Empty(t, LoadList[fixtureItem](context.Background(), nil, LeadsPath))
}

func TestLoadListOverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/demoLeads.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"lead-1","name":"Harbor Events"}]`))
	}))
	defer server.Close()

	loader := NewHTTP(server.URL+"/", server.Client())

	leads := LoadList[fixtureItem](context.Background(), loader, LeadsPath)
	require.Len(t, leads, 1)
	assert.Equal(t, "Harbor Events", leads[0].Name)

	assert.Empty(t, LoadList[fixtureItem](context.Background(), loader, GuestsPath))
}

func TestEmbeddedFixturesDecode(t *testing.T) {
	loader := NewEmbedded()
	ctx := context.Background()

	assert.NotEmpty(t, LoadList[model.RecycledRecord](ctx, loader, RecycleBinPath))
	assert.NotEmpty(t, LoadList[model.Lead](ctx, loader, LeadsPath))
	assert.NotEmpty(t, LoadList[model.Shareholder](ctx, loader, CapTableShareholdersPath))
	assert.NotEmpty(t, LoadList[model.EquityClass](ctx, loader, CapTableEquityClassesPath))
	assert.NotEmpty(t, LoadList[model.Security](ctx, loader, SecuritiesPath))
	assert.NotEmpty(t, LoadList[model.Transaction](ctx, loader, TransactionsPath))
	assert.NotEmpty(t, LoadList[model.ServiceRequest](ctx, loader, GuestServicesPath))
	assert.NotEmpty(t, LoadList[model.Guest](ctx, loader, GuestsPath))
	assert.NotEmpty(t, LoadList[model.SeedUser](ctx, loader, UsersPath))
}
