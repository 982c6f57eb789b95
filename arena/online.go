package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const DefaultHandshakeTimeout = 30 * time.Second

// Registration is the public identity of the agent in the arena.
type Registration struct {
	ModelName     string
	Description   string
	TeamHash      string
	SmallCategory bool
}

// OnlineEnvironment plays one game on the arena server. Registration and
// matchmaking happen in Reset; the game socket stays open until Close.
type OnlineEnvironment struct {
	serverURL      string
	matchmakingURL string
	track          Track
	reg            Registration

	httpClient *http.Client
	dialer     *websocket.Dialer

	conn        *websocket.Conn
	info        SessionInfo
	roleMapping map[int]string
	pending     *serverMessage
	stepInfo    StepInfo
	done        bool
	rewards     Rewards
	gameInfo    GameInfo
}

var _ Environment = (*OnlineEnvironment)(nil)

// OnlineOption configures an OnlineEnvironment.
type OnlineOption func(*OnlineEnvironment)

// WithHTTPClient sets the client used for model registration.
func WithHTTPClient(client *http.Client) OnlineOption {
	return func(x *OnlineEnvironment) {
		x.httpClient = client
	}
}

// WithMatchmakingURL overrides the WebSocket URL of the matchmaking
// endpoint. By default it is derived from the server URL.
func WithMatchmakingURL(u string) OnlineOption {
	return func(x *OnlineEnvironment) {
		x.matchmakingURL = u
	}
}

// WithHandshakeTimeout sets the WebSocket handshake timeout.
func WithHandshakeTimeout(d time.Duration) OnlineOption {
	return func(x *OnlineEnvironment) {
		x.dialer.HandshakeTimeout = d
	}
}

// NewOnline creates an environment for one game of the track.
func NewOnline(serverURL string, track Track, reg Registration, options ...OnlineOption) (*OnlineEnvironment, error) {
	if err := track.Validate(); err != nil {
		return nil, err
	}
	if serverURL == "" {
		return nil, goerr.New("arena server URL is required")
	}

	x := &OnlineEnvironment{
		serverURL:   serverURL,
		track:       track,
		reg:         reg,
		httpClient:  http.DefaultClient,
		dialer:      &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		roleMapping: map[int]string{},
	}
	for _, opt := range options {
		opt(x)
	}

	if x.matchmakingURL == "" {
		u, err := websocketURL(serverURL, "ws")
		if err != nil {
			return nil, err
		}
		x.matchmakingURL = u
	}

	return x, nil
}

// NewOnlineFactory returns a Factory creating online environments.
func NewOnlineFactory(serverURL string, reg Registration, options ...OnlineOption) Factory {
	return func(ctx context.Context, track Track) (Environment, error) {
		return NewOnline(serverURL, track, reg, options...)
	}
}

func (x *OnlineEnvironment) Info() SessionInfo {
	return x.info
}

func (x *OnlineEnvironment) RoleMapping() map[int]string {
	return x.roleMapping
}

// Reset registers the model, waits for a match and connects to the game.
func (x *OnlineEnvironment) Reset(ctx context.Context, numPlayers int) error {
	logger := ctxlog.From(ctx).With("track", x.track)

	token, err := x.register(ctx)
	if err != nil {
		return err
	}
	logger.Debug("model registered", "model_name", x.reg.ModelName)

	match, err := x.matchmake(ctx, token, numPlayers)
	if err != nil {
		return err
	}
	logger.Info("match found",
		"game_url", match.GameURL,
		"env_id", match.EnvID,
		"matched_env_name", match.MatchedEnvName,
	)

	gameURL, err := x.resolveGameURL(match.GameURL, token)
	if err != nil {
		return err
	}

	conn, _, err := x.dialer.DialContext(ctx, gameURL, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to connect to game server", goerr.V("game_url", match.GameURL))
	}

	x.conn = conn
	x.info = SessionInfo{
		GameURL:        match.GameURL,
		EnvID:          match.EnvID,
		EnvironmentID:  match.EnvironmentID,
		MatchedEnvName: match.MatchedEnvName,
	}
	x.pending, x.done, x.rewards, x.gameInfo = nil, false, nil, nil

	return nil
}

func (x *OnlineEnvironment) register(ctx context.Context) (string, error) {
	endpoint, err := url.JoinPath(x.serverURL, "register_model")
	if err != nil {
		return "", goerr.Wrap(err, "invalid arena server URL", goerr.V("url", x.serverURL))
	}

	body, err := json.Marshal(registerRequest{
		ModelName:     x.reg.ModelName,
		Description:   x.reg.Description,
		TeamHash:      x.reg.TeamHash,
		Track:         x.track,
		SmallCategory: x.reg.SmallCategory,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode registration")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create registration request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to send registration", goerr.V("url", endpoint))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read registration response")
	}

	if resp.StatusCode/100 != 2 {
		return "", goerr.Wrap(ErrRegistrationFailed, "arena rejected registration",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(raw)),
		)
	}

	var result registerResponse
	if err := json.Unmarshal(raw, &result); err != nil || result.ModelToken == "" {
		return "", goerr.Wrap(ErrRegistrationFailed, "registration response has no model token",
			goerr.V("body", string(raw)),
		)
	}

	return result.ModelToken, nil
}

func (x *OnlineEnvironment) matchmake(ctx context.Context, token string, numPlayers int) (*serverMessage, error) {
	u, err := withToken(x.matchmakingURL, token)
	if err != nil {
		return nil, err
	}

	conn, _, err := x.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to matchmaking", goerr.V("url", x.matchmakingURL))
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(queueRequest{
		Command:       cmdQueue,
		Track:         x.track,
		SmallCategory: x.reg.SmallCategory,
		NumPlayers:    numPlayers,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to queue for a match")
	}

	logger := ctxlog.From(ctx)
	for {
		msg, err := readMessage(ctx, conn)
		if err != nil {
			return nil, err
		}

		switch msg.Command {
		case cmdQueued:
			logger.Debug("queued for a match", "track", x.track)
		case cmdMatchFound:
			if msg.GameURL == "" {
				return nil, goerr.Wrap(ErrUnexpectedServer, "match has no game URL")
			}
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return msg, nil
		case cmdPing:
			if err := conn.WriteJSON(pongRequest{Command: cmdPong}); err != nil {
				return nil, goerr.Wrap(err, "failed to answer ping")
			}
		case cmdError, cmdTimedOut:
			return nil, goerr.Wrap(ErrUnexpectedServer, "matchmaking failed",
				goerr.V("command", msg.Command),
				goerr.V("message", msg.Message),
			)
		default:
			logger.Debug("ignore matchmaking message", "command", msg.Command)
		}
	}
}

// Observation returns the next observation addressed to the agent.
func (x *OnlineEnvironment) Observation(ctx context.Context) (int, Observation, error) {
	if x.conn == nil {
		return 0, Observation{}, goerr.Wrap(ErrNotStarted, "observation requested before reset")
	}

	if x.pending == nil && !x.done {
		if err := x.awaitTurn(ctx); err != nil {
			return 0, Observation{}, err
		}
	}
	if x.pending == nil {
		return 0, Observation{}, goerr.Wrap(ErrGameOver, "no observation after game over")
	}

	msg := x.pending
	x.pending = nil

	var obs Observation
	if err := json.Unmarshal(msg.Observation, &obs); err != nil {
		return 0, Observation{}, goerr.Wrap(err, "failed to decode observation", goerr.V("player_id", msg.PlayerID))
	}

	return msg.PlayerID, obs, nil
}

// Step sends the action and waits until the next observation or the end
// of the game.
func (x *OnlineEnvironment) Step(ctx context.Context, action string) (bool, StepInfo, error) {
	if x.conn == nil {
		return false, nil, goerr.Wrap(ErrNotStarted, "step before reset")
	}
	if x.done {
		return true, nil, goerr.Wrap(ErrGameOver, "step after game over")
	}

	if err := x.conn.WriteJSON(actionRequest{Command: cmdAction, Action: action}); err != nil {
		return false, nil, goerr.Wrap(err, "failed to send action")
	}

	x.stepInfo = StepInfo{}
	if err := x.awaitTurn(ctx); err != nil {
		return false, nil, err
	}

	return x.done, x.stepInfo, nil
}

// Close ends the session and returns the outcome reported by game_over.
// Closing before the game is over returns nil rewards.
func (x *OnlineEnvironment) Close(ctx context.Context) (Rewards, GameInfo, error) {
	if x.conn != nil {
		_ = x.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err := x.conn.Close(); err != nil {
			ctxlog.From(ctx).Debug("failed to close game connection", "error", err)
		}
		x.conn = nil
	}
	return x.rewards, x.gameInfo, nil
}

// awaitTurn reads frames until an observation is pending or the game is over.
func (x *OnlineEnvironment) awaitTurn(ctx context.Context) error {
	logger := ctxlog.From(ctx)

	for {
		msg, err := readMessage(ctx, x.conn)
		if err != nil {
			return err
		}

		switch msg.Command {
		case cmdObservation:
			for id, role := range msg.RoleMapping {
				x.roleMapping[id] = role
			}
			x.pending = msg
			return nil

		case cmdActionAck:
			for k, v := range msg.StepInfo {
				if x.stepInfo == nil {
					x.stepInfo = StepInfo{}
				}
				x.stepInfo[k] = v
			}

		case cmdGameOver:
			x.done = true
			x.rewards = msg.Rewards
			x.gameInfo = msg.GameInfo
			if msg.Message != "" {
				if x.stepInfo == nil {
					x.stepInfo = StepInfo{}
				}
				x.stepInfo["reason"] = msg.Message
			}
			return nil

		case cmdPing:
			if err := x.conn.WriteJSON(pongRequest{Command: cmdPong}); err != nil {
				return goerr.Wrap(err, "failed to answer ping")
			}

		case cmdError, cmdTimedOut:
			return goerr.Wrap(ErrUnexpectedServer, "game aborted by arena",
				goerr.V("command", msg.Command),
				goerr.V("message", msg.Message),
				goerr.V("env_id", x.info.EnvID),
			)

		default:
			logger.Debug("ignore game message", "command", msg.Command)
		}
	}
}

func readMessage(ctx context.Context, conn *websocket.Conn) (*serverMessage, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var msg serverMessage
	if err := conn.ReadJSON(&msg); err != nil {
		if ctx.Err() != nil {
			return nil, goerr.Wrap(ctx.Err(), "arena read interrupted")
		}
		return nil, goerr.Wrap(err, "failed to read arena message")
	}
	return &msg, nil
}

func (x *OnlineEnvironment) resolveGameURL(gameURL, token string) (string, error) {
	base, err := url.Parse(x.matchmakingURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid matchmaking URL", goerr.V("url", x.matchmakingURL))
	}
	ref, err := url.Parse(gameURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid game URL", goerr.V("url", gameURL))
	}
	return withToken(base.ResolveReference(ref).String(), token)
}

// websocketURL converts an http(s) base URL into a ws(s) URL with the path appended.
func websocketURL(serverURL string, elem ...string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid arena server URL", goerr.V("url", serverURL))
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", goerr.New("unsupported arena URL scheme", goerr.V("url", serverURL))
	}
	return u.JoinPath(elem...).String(), nil
}

func withToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid arena URL", goerr.V("url", rawURL))
	}
	q := u.Query()
	q.Set("model_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
