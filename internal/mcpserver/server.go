// Package mcpserver exposes the garden to LLM clients as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/planthub/internal/apperr"
	"github.com/starford/planthub/internal/catalog"
	"github.com/starford/planthub/internal/garden"
)

// CareScheduleURI is the resource listing what needs doing.
const CareScheduleURI = "planthub://care-schedule"

// Server wraps the MCP server with the garden tools.
type Server struct {
	mcp     *server.MCPServer
	garden  *garden.Garden
	catalog *catalog.Searcher
	logger  *slog.Logger
}

// New creates an MCP server with every tool registered.
func New(g *garden.Garden, cat *catalog.Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{garden: g, catalog: cat, logger: logger}

	s.mcp = server.NewMCPServer(
		"Planthub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_plants",
		mcp.WithDescription("List every plant in the garden with its care metadata and next watering date."),
	), s.listPlants)

	s.mcp.AddTool(mcp.NewTool("upcoming_reminders",
		mcp.WithDescription("List open care reminders due soon, earliest first (at most 5). Overdue reminders are included."),
		mcp.WithNumber("within_days", mcp.Description("Look-ahead window in days (defaults to the configured window)")),
	), s.upcomingReminders)

	s.mcp.AddTool(mcp.NewTool("water_plant",
		mcp.WithDescription("Record that a plant was watered now and schedule the next watering."),
		mcp.WithString("plant_id", mcp.Required(), mcp.Description("Plant ID from list_plants")),
	), s.waterPlant)

	s.mcp.AddTool(mcp.NewTool("fertilize_plant",
		mcp.WithDescription("Record that a plant was fertilized now and schedule the next feeding."),
		mcp.WithString("plant_id", mcp.Required(), mcp.Description("Plant ID from list_plants")),
	), s.fertilizePlant)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Attach a free-text note to a plant. The note is also written to its journey."),
		mcp.WithString("plant_id", mcp.Required(), mcp.Description("Plant ID from list_plants")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text; must not be blank")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("complete_reminder",
		mcp.WithDescription("Complete a reminder. Recurring reminders are rescheduled automatically."),
		mcp.WithString("reminder_id", mcp.Required(), mcp.Description("Reminder ID from upcoming_reminders")),
	), s.completeReminder)

	s.mcp.AddTool(mcp.NewTool("get_journey",
		mcp.WithDescription("Return a plant's journey log (last 50 care events) in insertion order."),
		mcp.WithString("plant_id", mcp.Required(), mcp.Description("Plant ID")),
	), s.getJourney)

	s.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Search plant species by name. Use a species_id from the result with add_plant."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Common or scientific name")),
	), s.searchCatalog)

	s.mcp.AddTool(mcp.NewTool("add_plant",
		mcp.WithDescription("Add a species to the garden. Seeds water and fertilize reminders."),
		mcp.WithString("species_id", mcp.Required(), mcp.Description("species_id from search_catalog")),
	), s.addPlant)

	s.mcp.AddResource(
		mcp.NewResource(CareScheduleURI, "Care Schedule",
			mcp.WithResourceDescription("Overdue and upcoming plant care as Markdown."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCareSchedule,
	)

	return s
}

// ServeStdio serves MCP on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

// toolError turns a garden error into a tool error result. A persistence
// failure still reports that the change was applied in memory.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrPersistence) {
		s.logger.Error("mcp: tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
		return mcp.NewToolResultError("change applied but not saved: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listPlants(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.garden.Summaries()), nil
}

func (s *Server) upcomingReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	within := req.GetInt("within_days", s.garden.UpcomingWindow())
	return jsonResult(s.garden.Upcoming(within)), nil
}

func (s *Server) waterPlant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plant_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	next, err := s.garden.RecordWater(ctx, id)
	if err != nil {
		return s.toolError("water_plant", err), nil
	}
	if next == nil {
		return mcp.NewToolResultText(fmt.Sprintf("watered %s; no further watering scheduled", s.plantName(id))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("watered %s; next watering due %s",
		next.PlantName, next.DueAt.Format("2006-01-02"))), nil
}

func (s *Server) fertilizePlant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plant_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	next, err := s.garden.RecordFertilize(ctx, id)
	if err != nil {
		return s.toolError("fertilize_plant", err), nil
	}
	if next == nil {
		return mcp.NewToolResultText(fmt.Sprintf("fertilized %s; no further feeding scheduled", s.plantName(id))), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("fertilized %s; next feeding due %s",
		next.PlantName, next.DueAt.Format("2006-01-02"))), nil
}

func (s *Server) plantName(id string) string {
	if p, err := s.garden.Plant(id); err == nil {
		return p.Nickname
	}
	return id
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plant_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.garden.AddNote(ctx, id, text)
	if err != nil {
		return s.toolError("add_note", err), nil
	}
	return jsonResult(note), nil
}

func (s *Server) completeReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("reminder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	next, err := s.garden.CompleteReminder(ctx, id)
	if err != nil {
		return s.toolError("complete_reminder", err), nil
	}
	if next == nil {
		return mcp.NewToolResultText("completed: " + id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("completed: %s; next %q due %s",
		id, next.Title, next.DueAt.Format("2006-01-02"))), nil
}

func (s *Server) getJourney(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("plant_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.garden.Journey(id)
	if err != nil {
		return s.toolError("get_journey", err), nil
	}
	return jsonResult(entries), nil
}

func (s *Server) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.catalog.Search(ctx, query)
	if err != nil {
		return s.toolError("search_catalog", err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) addPlant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	speciesID, err := req.RequireString("species_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.catalog.Lookup(speciesID)
	if err != nil {
		return mcp.NewToolResultError(err.Error() + " (run search_catalog first)"), nil
	}
	p, err := s.garden.AddPlant(ctx, entry)
	if err != nil {
		return s.toolError("add_plant", err), nil
	}
	return jsonResult(p), nil
}

func (s *Server) readCareSchedule(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CareScheduleURI,
			MIMEType: "text/markdown",
			Text:     RenderCareSchedule(s.garden.Overdue(), s.garden.Upcoming(0), s.garden.Now()),
		},
	}, nil
}
