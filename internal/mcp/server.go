package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds Workout, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitCoach workout session server. Load today's planned workout, log sets as the user trains, complete or skip exercises in order, run rest timers, and read the progress dashboard. Exercises must be processed in order; completing one requires at least one logged set."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutSession, Handler: h.getWorkoutSession},
		server.ServerTool{Tool: toolLoadWorkout, Handler: h.loadWorkout},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolTogglePause, Handler: h.togglePause},
		server.ServerTool{Tool: toolLogSet, Handler: h.logSet},
		server.ServerTool{Tool: toolUpdateProgress, Handler: h.updateProgress},
		server.ServerTool{Tool: toolCompleteExercise, Handler: h.completeExercise},
		server.ServerTool{Tool: toolSkipExercise, Handler: h.skipExercise},
		server.ServerTool{Tool: toolFinishWorkout, Handler: h.finishWorkout},
		server.ServerTool{Tool: toolRegeneratePlan, Handler: h.regeneratePlan},
		server.ServerTool{Tool: toolRestTimer, Handler: h.restTimer},
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resSession, Handler: h.sessionResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  Workout
	log *slog.Logger
}

// --- Resource definitions ---

var resSession = mcp.NewResource(
	"fitcoach://session",
	"Workout Session",
	mcp.WithResourceDescription("Snapshot of the current workout session"),
	mcp.WithMIMEType("application/json"),
)
