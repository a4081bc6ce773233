package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/triage-ai/rampart/internal/audit"
	"github.com/triage-ai/rampart/internal/config"
	"github.com/triage-ai/rampart/internal/detect"
	"go.uber.org/zap"
)

// ErrCatalogFetch wraps transport failures during Pin. The registry entry is
// left untouched when it occurs.
var ErrCatalogFetch = errors.New("tool catalog fetch failed")

// DefaultPinTimeout bounds the network fetch inside Pin.
const DefaultPinTimeout = 30 * time.Second

// Pinner fetches a remote tool catalog, fingerprints it, classifies every
// tool, and commits the result to the registry atomically. Re-running Pin
// against an unchanged catalog is idempotent: same hash, same
// categorization, regardless of the remote's JSON key order.
type Pinner struct {
	store   *Store
	fetcher CatalogFetcher
	presets *config.PresetSource
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	perServer map[string]*sync.Mutex
}

// NewPinner creates a Pinner. A zero timeout uses DefaultPinTimeout.
func NewPinner(store *Store, fetcher CatalogFetcher, presets *config.PresetSource, timeout time.Duration, logger *zap.Logger) *Pinner {
	if timeout <= 0 {
		timeout = DefaultPinTimeout
	}
	return &Pinner{
		store:     store,
		fetcher:   fetcher,
		presets:   presets,
		timeout:   timeout,
		logger:    logger,
		perServer: make(map[string]*sync.Mutex),
	}
}

// serverLock returns the mutex serializing pins of one server id. Pins of
// different servers proceed independently.
func (p *Pinner) serverLock(serverID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.perServer[serverID]
	if !ok {
		m = &sync.Mutex{}
		p.perServer[serverID] = m
	}
	return m
}

// Pin (re)fingerprints the server's tool catalog and updates its registry
// entry. On fetch failure the existing entry is left untouched and the error
// is surfaced to the caller.
func (p *Pinner) Pin(ctx context.Context, serverID string) (result *PinResult, err error) {
	defer func() { audit.RecordPin(err) }()

	lock := p.serverLock(serverID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := p.store.Get(serverID)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	tools, err := p.fetcher.Fetch(fetchCtx, entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogFetch, err)
	}

	hash, err := CanonicalHash(tools)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]detect.ToolCategory, len(tools))
	allowedParams := make(map[string][]string, len(tools))
	var autoApprove, hitl []string

	_, preset := p.presets.Presets().Resolve(entry.Preset)
	allowlisted := make(map[string]bool, len(entry.AllowList))
	for _, t := range entry.AllowList {
		allowlisted[t] = true
	}

	for _, tool := range tools {
		p.checkSchema(serverID, tool)

		category := detect.ClassifyTool(tool.Name, tool.Description)
		categories[tool.Name] = category
		allowedParams[tool.Name] = allowedParamNames(tool.InputSchema)

		autoOK := category == detect.ToolRead
		if autoOK && preset.MCP.AutoApproveRequiresAllowlist && !allowlisted[tool.Name] {
			autoOK = false
		}
		if autoOK {
			autoApprove = append(autoApprove, tool.Name)
		} else {
			hitl = append(hitl, tool.Name)
		}
	}
	sort.Strings(autoApprove)
	sort.Strings(hitl)

	now := time.Now().UTC()
	updated := *entry
	updated.PinnedToolsHash = hash
	updated.ToolCategories = categories
	updated.AllowedParams = allowedParams
	updated.AutoApproveTools = autoApprove
	updated.HITLTools = hitl
	updated.PinnedAt = now

	if err := p.store.Upsert(&updated); err != nil {
		return nil, err
	}

	p.logger.Info("pinned tool catalog",
		zap.String("server_id", serverID),
		zap.String("pinned_tools_hash", hash),
		zap.Int("tool_count", len(tools)),
	)

	return &PinResult{
		ServerID:        serverID,
		PinnedToolsHash: hash,
		ToolCount:       len(tools),
		PinnedAt:        now,
	}, nil
}

// checkSchema compiles the tool's input schema so malformed catalogs show up
// in the log at pin time rather than at enforcement time. A bad schema never
// fails the pin.
func (p *Pinner) checkSchema(serverID string, tool CatalogTool) {
	if tool.InputSchema == nil {
		return
	}
	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return
	}
	var schemaObj any
	if err := json.Unmarshal(data, &schemaObj); err != nil {
		return
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaObj); err != nil {
		p.logSchemaIssue(serverID, tool.Name, err)
		return
	}
	if _, err := c.Compile("schema.json"); err != nil {
		p.logSchemaIssue(serverID, tool.Name, err)
	}
}

func (p *Pinner) logSchemaIssue(serverID, toolName string, err error) {
	p.logger.Warn("tool input schema does not compile",
		zap.String("server_id", serverID),
		zap.String("tool_name", toolName),
		zap.Error(err),
	)
}

// allowedParamNames derives the declared parameter names from a tool's input
// schema. Returns nil when the schema has no object/properties shape —
// "no declared parameters" is an expected outcome, not an error.
func allowedParamNames(schema map[string]any) []string {
	if schema == nil {
		return nil
	}
	if t, ok := schema["type"].(string); ok && t != "object" {
		return nil
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
