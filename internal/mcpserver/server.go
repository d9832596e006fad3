// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Othala catalog and vault tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/enrich"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/storage"
)

// Server wraps the MCP server with Othala tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    index.DocumentIndex
	svc   *enrich.Service
}

// New creates a new MCP server with all Othala tools registered.
func New(store storage.Provider, db index.DocumentIndex, svc *enrich.Service) *Server {
	s := &Server{store: store, db: db, svc: svc}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_games",
		mcp.WithDescription("Search the IGDB game catalog by title."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Game title to search for")),
	), s.searchGames)

	s.mcp.AddTool(mcp.NewTool("add_game",
		mcp.WithDescription("Create a new game document in the vault from an IGDB id."),
		mcp.WithString("igdb_id", mcp.Required(), mcp.Description("IGDB game id, as returned by search_games")),
	), s.addGame)

	s.mcp.AddTool(mcp.NewTool("enrich_game",
		mcp.WithDescription("Refresh a game document from its catalogs: merges metadata, "+
			"recomputes tags, and caches cover art. User-owned fields (rating, status, "+
			"notes) are never touched."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the game document")),
		mcp.WithBoolean("force", mcp.Description("Re-enrich even when the document is already marked enriched")),
	), s.enrichGame)

	s.mcp.AddTool(mcp.NewTool("import_steam_game",
		mcp.WithDescription("Create a game document from a Steam app id, cross-referencing IGDB."),
		mcp.WithString("appid", mcp.Required(), mcp.Description("Steam app id")),
	), s.importSteamGame)

	s.mcp.AddTool(mcp.NewTool("sync_steam_library",
		mcp.WithDescription("Import every game from the configured Steam library and refresh known ones."),
		mcp.WithBoolean("force", mcp.Description("Also refresh documents already marked enriched")),
		mcp.WithBoolean("dry_run", mcp.Description("Report what would happen without writing anything")),
		mcp.WithNumber("min_playtime_hours", mcp.Description("Skip games played less than this many hours")),
		mcp.WithNumber("limit", mcp.Description("Process at most this many games")),
	), s.syncSteamLibrary)

	s.mcp.AddTool(mcp.NewTool("search_books",
		mcp.WithDescription("Search the Calibre library by title."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Book title to search for")),
	), s.searchBooks)

	s.mcp.AddTool(mcp.NewTool("import_book",
		mcp.WithDescription("Create a new book document in the vault from a Calibre book id."),
		mcp.WithString("calibre_id", mcp.Required(), mcp.Description("Calibre book id, as returned by search_books")),
	), s.importBook)

	s.mcp.AddTool(mcp.NewTool("update_book",
		mcp.WithDescription("Refresh a book document from Calibre. Skips when the Calibre "+
			"timestamp is unchanged unless force is set."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the book document")),
		mcp.WithBoolean("force", mcp.Description("Refresh even when the Calibre timestamp is unchanged")),
	), s.updateBook)

	s.mcp.AddTool(mcp.NewTool("import_repo",
		mcp.WithDescription("Create a new repository document from a GitHub owner/repo name."),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository in owner/repo form")),
	), s.importRepo)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through vault documents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a vault document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. games/doom.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_properties",
		mcp.WithDescription("List every frontmatter property used across the vault with usage "+
			"counts and sample values, flagging properties the merge policy does not know."),
	), s.listProperties)

	s.mcp.AddTool(mcp.NewTool("property_values",
		mcp.WithDescription("Show the value histogram of one frontmatter property, most frequent first."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Property name, e.g. genres")),
	), s.propertyValues)

	s.mcp.AddTool(mcp.NewTool("files_with_property",
		mcp.WithDescription("List documents whose frontmatter carries the named property."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Property name")),
	), s.filesWithProperty)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Summarize the vault: document counts by kind."),
	), s.vaultStats)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical Othala document format contract. "+
			"Call this before creating or editing documents by hand."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("othala://note-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical Markdown document format and field ownership rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError maps service errors onto tool results; the taxonomy sentinels
// get stable, readable messages.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNoCatalogMatch):
		return mcp.NewToolResultError("no catalog match")
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("document already exists")
	case errors.Is(err, apperr.ErrUpToDate):
		return mcp.NewToolResultError("already up to date (pass force to refresh)")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("document not found")
	case errors.Is(err, apperr.ErrMalformedHeader):
		return mcp.NewToolResultError("refusing to touch document: malformed frontmatter header")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// recordSummaries flattens catalog records for pick lists.
func recordSummaries(records []*models.CatalogRecord) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any{
			"provider": string(r.Provider),
			"id":       r.SourceID,
			"title":    cast.ToString(r.Get(models.FieldTitle)),
			"release":  cast.ToString(r.Get(models.FieldReleaseDate)),
		})
	}
	return out
}

func (s *Server) searchGames(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.SearchGames(ctx, query, 10)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(recordSummaries(records)), nil
}

func (s *Server) addGame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("igdb_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.AddGame(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) enrichGame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.EnrichGame(ctx, path, req.GetBool("force", false))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) importSteamGame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("appid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	appid := cast.ToInt64(raw)
	if appid <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid appid %q", raw)), nil
	}
	res, err := s.svc.ImportSteamGame(ctx, appid)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) syncSteamLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := enrich.SteamSyncOptions{
		Force:            req.GetBool("force", false),
		DryRun:           req.GetBool("dry_run", false),
		MinPlaytimeHours: req.GetFloat("min_playtime_hours", 0),
		Limit:            req.GetInt("limit", 0),
	}
	report, err := s.svc.SyncSteamLibrary(ctx, opts)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(report), nil
}

func (s *Server) searchBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.SearchBooks(ctx, query, 10)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(recordSummaries(records)), nil
}

func (s *Server) importBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("calibre_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ImportBook(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) updateBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.UpdateBook(ctx, path, req.GetBool("force", false))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) importRepo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := req.RequireString("repo")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ImportRepo(ctx, repo)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listProperties(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overview, err := s.svc.PropertyStats(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(overview), nil
}

func (s *Server) propertyValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := s.svc.PropertyValues(ctx, name)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(values), nil
}

func (s *Server) filesWithProperty(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths, err := s.svc.FilesWithProperty(ctx, name)
	if err != nil {
		return toolError(err), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no documents carry this property"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) vaultStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(stats), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "othala://note-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
