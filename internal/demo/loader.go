// Package demo loads the static demo fixtures that seed empty stores.
package demo

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"hotel-pms/internal/metrics"
)

// Fixture paths, relative to the demo root.
const (
	RecycleBinPath            = "/demo/demoRecycleBin.json"
	LeadsPath                 = "/demo/demoLeads.json"
	CapTableShareholdersPath  = "/demo/demoCapTableShareholders.json"
	CapTableEquityClassesPath = "/demo/demoCapTableEquityClasses.json"
	SecuritiesPath            = "/demo/demoSecurities.json"
	TransactionsPath          = "/demo/demoTransactions.json"
	GuestServicesPath         = "/demo/demoGuestServices.json"
	GuestsPath                = "/demo/demoGuests.json"
	UsersPath                 = "/demo/demoUsers.json"
)

//go:embed fixtures/*.json
var embedded embed.FS

type Loader struct {
	fsys    fs.FS
	baseURL string
	client  *http.Client
}

// NewEmbedded serves the fixtures compiled into the binary.
func NewEmbedded() *Loader {
	sub, err := fs.Sub(embedded, "fixtures")
	if err != nil {
		panic(fmt.Sprintf("demo fixtures: %v", err))
	}
	return &Loader{fsys: sub}
}

func NewFS(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewHTTP fetches fixtures from baseURL + path, the way the dashboard pulls them.
func NewHTTP(baseURL string, client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (l *Loader) Fetch(ctx context.Context, fixturePath string) ([]byte, error) {
	if l.baseURL != "" {
		return l.fetchHTTP(ctx, fixturePath)
	}

	name := strings.TrimPrefix(strings.TrimPrefix(fixturePath, "/"), "demo/")
	return fs.ReadFile(l.fsys, name)
}

func (l *Loader) fetchHTTP(ctx context.Context, fixturePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+strings.TrimPrefix(fixturePath, "/"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", fixturePath, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// LoadList decodes a fixture holding either a bare array or a {"data": [...]}
// envelope. Any failure yields an empty slice.
func LoadList[T any](ctx context.Context, l *Loader, fixturePath string) []T {
	items, err := decodeList[T](ctx, l, fixturePath)
	if err != nil {
		slog.Warn("demo fixture unavailable, using empty collection", "path", fixturePath, "error", err)
		metrics.ObserveFixtureFailure(fixturePath)
		return []T{}
	}
	return items
}

func decodeList[T any](ctx context.Context, l *Loader, fixturePath string) ([]T, error) {
	if l == nil {
		return nil, fmt.Errorf("no loader configured")
	}

	data, err := l.Fetch(ctx, fixturePath)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("fixture is not valid JSON")
	}

	result := gjson.ParseBytes(data)
	if result.IsObject() {
		result = result.Get("data")
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("fixture does not contain an array")
	}

	items := make([]T, 0)
	if err := json.Unmarshal([]byte(result.Raw), &items); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	return items, nil
}
