package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/export"
	"github.com/aretw0/elementx/pkg/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const elementsURI = "elementx://elements"

// CalculationResponse is the structured output of calculate_sample.
type CalculationResponse struct {
	Result  chem.Result `json:"result" jsonschema_description:"Mass of every element to weigh out"`
	Summary string      `json:"summary" jsonschema_description:"Plain-text summary for pasting into a lab notebook"`
}

// FormulaResponse is the structured output of parse_formula.
type FormulaResponse struct {
	Formula  string       `json:"formula" jsonschema_description:"The formula as given"`
	Elements []chem.Entry `json:"elements" jsonschema_description:"Elements in first-occurrence order with their summed counts"`
}

// ElementResponse is the structured output of normalize_element.
type ElementResponse struct {
	Input   string        `json:"input"`
	Symbol  string        `json:"symbol" jsonschema_description:"Canonical symbol, or the cleaned input when unrecognised"`
	Known   bool          `json:"known" jsonschema_description:"Whether the symbol is in the periodic table"`
	Element *chem.Element `json:"element,omitempty"`
}

type calculateArgs struct {
	Formula string `mapstructure:"formula"`
	Target  string `mapstructure:"target_element"`
	Mass    string `mapstructure:"target_mass_g"`
}

type formulaArgs struct {
	Formula string `mapstructure:"formula"`
}

type elementArgs struct {
	Name string `mapstructure:"name"`
}

// Server exposes the calculator as an MCP server.
type Server struct {
	lab       *elementx.Lab
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(lab *elementx.Lab, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		lab:       lab,
		logger:    logger,
		mcpServer: server.NewMCPServer("elementx-mcp", strings.TrimSpace(elementx.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		if err := <-serverErrors; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	calculateTool := mcp.NewTool("calculate_sample",
		mcp.WithDescription("Compute how many grams of each element to weigh out so that the target element weighs the given mass."),
		mcp.WithString("formula", mcp.Required(), mcp.Description("Chemical formula, e.g. Fe2MoGe or Bi2Te3")),
		mcp.WithString("target_element", mcp.Required(), mcp.Description("Symbol or name of the element whose mass is fixed, e.g. Ge or germanium")),
		mcp.WithString("target_mass_g", mcp.Required(), mcp.Description("Mass of the target element in grams")),
		mcp.WithOutputSchema[CalculationResponse](),
	)
	s.mcpServer.AddTool(calculateTool, mcp.NewStructuredToolHandler(s.handleCalculate))

	parseTool := mcp.NewTool("parse_formula",
		mcp.WithDescription("Split a chemical formula into elements and stoichiometric counts."),
		mcp.WithString("formula", mcp.Required(), mcp.Description("Chemical formula")),
		mcp.WithOutputSchema[FormulaResponse](),
	)
	s.mcpServer.AddTool(parseTool, mcp.NewStructuredToolHandler(s.handleParse))

	normalizeTool := mcp.NewTool("normalize_element",
		mcp.WithDescription("Resolve an element name or loosely typed symbol (e.g. 'germanium', 'GE') to its canonical symbol."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Element name or symbol")),
		mcp.WithOutputSchema[ElementResponse](),
	)
	s.mcpServer.AddTool(normalizeTool, mcp.NewStructuredToolHandler(s.handleNormalize))

	s.mcpServer.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the periodic table (hydrogen to radon) with standard atomic masses."),
	), s.handleListElements)
}

func (s *Server) handleListElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(chem.Elements())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode elements: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// decodeArgs maps loosely typed tool arguments onto out. Numbers arrive as
// float64 from JSON and are accepted where a string is declared.
func decodeArgs(args map[string]interface{}, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func (s *Server) handleCalculate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CalculationResponse, error) {
	var in calculateArgs
	if err := decodeArgs(args, &in); err != nil {
		return CalculationResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := sanitize.Fields(&in.Formula, &in.Target, &in.Mass); err != nil {
		s.logger.Warn("MCP calculate: input rejected", "error", err)
		return CalculationResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	mass, err := chem.ParseMass(in.Mass)
	if err != nil {
		return CalculationResponse{}, err
	}
	res, err := s.lab.Calculate(in.Formula, in.Target, mass)
	if err != nil {
		return CalculationResponse{}, err
	}
	return CalculationResponse{Result: res, Summary: export.Summary(res)}, nil
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormulaResponse, error) {
	var in formulaArgs
	if err := decodeArgs(args, &in); err != nil {
		return FormulaResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := sanitize.Fields(&in.Formula); err != nil {
		return FormulaResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	comp, err := chem.Parse(in.Formula)
	if err != nil {
		return FormulaResponse{}, err
	}
	return FormulaResponse{Formula: in.Formula, Elements: comp.Entries()}, nil
}

func (s *Server) handleNormalize(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ElementResponse, error) {
	var in elementArgs
	if err := decodeArgs(args, &in); err != nil {
		return ElementResponse{}, fmt.Errorf("invalid arguments: %w", err)
	}
	if err := sanitize.Fields(&in.Name); err != nil {
		return ElementResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	symbol := chem.Normalize(in.Name)
	resp := ElementResponse{Input: in.Name, Symbol: symbol}
	if el, ok := chem.Lookup(symbol); ok {
		resp.Known = true
		resp.Element = &el
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(elementsURI, "Periodic Table",
		mcp.WithResourceDescription("Symbols, names and standard atomic masses used by the calculator"),
		mcp.WithMIMEType("application/json"),
	), s.readElements)
}

func (s *Server) readElements(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(chem.Elements())
	if err != nil {
		return nil, fmt.Errorf("failed to encode elements: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      elementsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
