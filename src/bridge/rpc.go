// Package bridge exposes the app commands over JSON-RPC 2.0 on HTTP (/rpc)
// and WebSocket (/ws), and streams window events to WebSocket clients, so
// a web front end can host the Lighthouse windows.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"lighthouse/src/app"
	"lighthouse/src/focusstate"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Server error: the command itself failed
	ErrCodeServerError = -32000
)

var okResponse = map[string]any{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   any    `json:"error,omitempty"`
	ID      any    `json:"id"`
}

// HandlerFunc runs one method.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// paramsError marks a failure to decode params, reported as -32602.
type paramsError struct{ err error }

func (e *paramsError) Error() string { return "invalid parameters: " + e.err.Error() }

func decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return &paramsError{fmt.Errorf("params are required")}
	}
	if err := json.Unmarshal(params, v); err != nil {
		return &paramsError{err}
	}
	return nil
}

type imageQuestion struct {
	Image    string `json:"image"`
	Question string `json:"question"`
}

type imageObject struct {
	Image  string `json:"image"`
	Object string `json:"object"`
}

type windowInfoParams struct {
	WindowInfo *focusstate.WindowInfo `json:"windowInfo"`
}

// Registry maps method names to handlers bound to a.
func Registry(a *app.App) map[string]HandlerFunc {
	ok := func(err error) (any, error) {
		if err != nil {
			return nil, err
		}
		return okResponse, nil
	}

	return map[string]HandlerFunc{
		"take_screenshot": func(context.Context, json.RawMessage) (any, error) {
			return a.TakeScreenshot()
		},
		"open_screen_overlay": func(_ context.Context, p json.RawMessage) (any, error) {
			var payload app.OverlayPayload
			if err := decode(p, &payload); err != nil {
				return nil, err
			}
			return ok(a.OpenScreenOverlay(payload))
		},
		"update_screen_overlay_data": func(_ context.Context, p json.RawMessage) (any, error) {
			var payload app.OverlayPayload
			if err := decode(p, &payload); err != nil {
				return nil, err
			}
			return ok(a.UpdateScreenOverlayData(payload))
		},
		"close_screen_overlay": func(context.Context, json.RawMessage) (any, error) {
			return ok(a.CloseScreenOverlay())
		},
		"open_fullscreen_viewer": func(_ context.Context, p json.RawMessage) (any, error) {
			var payload app.ViewerPayload
			if err := decode(p, &payload); err != nil {
				return nil, err
			}
			return ok(a.OpenFullscreenViewer(payload))
		},
		"open_settings_window": func(context.Context, json.RawMessage) (any, error) {
			return ok(a.OpenSettingsWindow())
		},
		"open_skill_graph_window": func(context.Context, json.RawMessage) (any, error) {
			return ok(a.OpenSkillGraphWindow())
		},
		"get_skills_data": func(context.Context, json.RawMessage) (any, error) {
			return a.GetSkillsData()
		},
		"get_available_windows": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return a.GetAvailableWindows(ctx)
		},
		"arrange_windows": func(ctx context.Context, p json.RawMessage) (any, error) {
			var params windowInfoParams
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			if params.WindowInfo == nil {
				return nil, &paramsError{fmt.Errorf("'windowInfo' is required")}
			}
			return ok(a.ArrangeWindows(ctx, *params.WindowInfo))
		},
		"start_focus_selection_mode": func(context.Context, json.RawMessage) (any, error) {
			a.StartFocusSelectionMode()
			return okResponse, nil
		},
		"stop_focus_selection_mode": func(context.Context, json.RawMessage) (any, error) {
			a.StopFocusSelectionMode()
			return okResponse, nil
		},
		"get_focus_selection_mode": func(context.Context, json.RawMessage) (any, error) {
			return a.GetFocusSelectionMode(), nil
		},
		"get_focused_window": func(context.Context, json.RawMessage) (any, error) {
			// A nil pointer in an interface would be dropped by omitempty;
			// send an explicit JSON null instead.
			if w := a.GetFocusedWindow(); w != nil {
				return w, nil
			}
			return json.RawMessage("null"), nil
		},
		"set_focused_window": func(_ context.Context, p json.RawMessage) (any, error) {
			var params windowInfoParams
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return ok(a.SetFocusedWindow(params.WindowInfo))
		},
		"show_main_window": func(ctx context.Context, _ json.RawMessage) (any, error) {
			return ok(a.ShowMainWindow(ctx))
		},
		"moondream_query": func(ctx context.Context, p json.RawMessage) (any, error) {
			var params imageQuestion
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return a.MoondreamQuery(ctx, params.Image, params.Question)
		},
		"moondream_point": func(ctx context.Context, p json.RawMessage) (any, error) {
			var params imageObject
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return a.MoondreamPoint(ctx, params.Image, params.Object)
		},
		"moondream_detect": func(ctx context.Context, p json.RawMessage) (any, error) {
			var params imageObject
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return a.MoondreamDetect(ctx, params.Image, params.Object)
		},
		"locate": func(ctx context.Context, p json.RawMessage) (any, error) {
			var params struct {
				Object string `json:"object"`
			}
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return a.Locate(ctx, params.Object)
		},
		"copy_text": func(_ context.Context, p json.RawMessage) (any, error) {
			var params struct {
				Text string `json:"text"`
			}
			if err := decode(p, &params); err != nil {
				return nil, err
			}
			return ok(a.CopyText(params.Text))
		},
	}
}
