package devcore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/tevino/abool"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/goliatone/go-corepanel/pkg/rpc"
)

const statusBuffer = 10

// Call records one RPC received by the server.
type Call struct {
	Method      string
	ExtensionID string
	Button      string
	Data        map[string]string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtensions registers extension factories in order.
func WithExtensions(factories ...Factory) Option {
	return func(s *Server) {
		for _, f := range factories {
			if err := s.Register(f); err != nil {
				s.logger.Warn("devcore: skip extension", "id", f.ID, "error", err)
			}
		}
	}
}

// WithStartDelay keeps the core in STARTING for d before it reports STARTED.
func WithStartDelay(d time.Duration) Option {
	return func(s *Server) {
		s.startDelay = d
	}
}

// Server is an in-memory core implementing the Core and ExtensionHost
// services. It backs the devcore command and the package tests.
type Server struct {
	mu         sync.Mutex
	order      []string
	extensions map[string]*hosted
	state      rpc.CoreState
	settings   string
	config     string
	calls      []Call
	failures   map[string]error

	status     *broadcaster[rpc.CoreInfoResponse]
	startDelay time.Duration
	logger     *slog.Logger

	grpcServer *grpc.Server
	serving    *abool.AtomicBool
}

var (
	_ rpc.CoreServer          = (*Server)(nil)
	_ rpc.ExtensionHostServer = (*Server)(nil)
)

// New builds a stopped core without extensions unless options add some.
func New(opts ...Option) *Server {
	s := &Server{
		extensions: make(map[string]*hosted),
		state:      rpc.CoreStopped,
		failures:   make(map[string]error),
		status:     newBroadcaster[rpc.CoreInfoResponse](statusBuffer),
		logger:     slog.Default(),
		serving:    abool.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register adds an extension factory.
func (s *Server) Register(f Factory) error {
	if f.ID == "" {
		return fmt.Errorf("devcore: extension id is required")
	}
	if f.New == nil {
		return fmt.Errorf("devcore: extension %s has no constructor", f.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.extensions[f.ID]; exists {
		return fmt.Errorf("devcore: extension %s already registered", f.ID)
	}
	s.extensions[f.ID] = &hosted{
		factory: f,
		enabled: f.Enabled,
		queue:   make(chan *rpc.ExtensionResponse, queueSize),
	}
	s.order = append(s.order, f.ID)
	return nil
}

// RegisterServices attaches both services to an existing gRPC server.
func (s *Server) RegisterServices(registrar grpc.ServiceRegistrar) {
	rpc.RegisterCoreServer(registrar, s)
	rpc.RegisterExtensionHostServer(registrar, s)
}

// Serve runs a gRPC server on lis until Shutdown is called.
func (s *Server) Serve(lis net.Listener) error {
	if !s.serving.SetToIf(false, true) {
		return fmt.Errorf("devcore: already serving")
	}
	srv := grpc.NewServer()
	s.RegisterServices(srv)

	s.mu.Lock()
	s.grpcServer = srv
	s.mu.Unlock()

	s.logger.Info("devcore: serving", "address", lis.Addr().String())
	return srv.Serve(lis)
}

// Shutdown ends all streams and stops the gRPC server started by Serve.
func (s *Server) Shutdown() {
	s.status.CloseAll()
	s.mu.Lock()
	srv := s.grpcServer
	s.grpcServer = nil
	s.mu.Unlock()
	if srv != nil {
		srv.Stop()
	}
	s.serving.UnSet()
}

// Calls returns every recorded call.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls of one method, e.g. rpc.ExtensionSubmitFormMethod.
func (s *Server) CallsTo(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// FailNext makes the next call of method return err.
func (s *Server) FailNext(method string, err error) {
	s.mu.Lock()
	s.failures[method] = err
	s.mu.Unlock()
}

// SetState moves the core to state and notifies status listeners.
func (s *Server) SetState(state rpc.CoreState, msgType rpc.MessageType, message string) rpc.CoreInfoResponse {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	info := rpc.CoreInfoResponse{CoreState: state, MessageType: msgType, Message: message}
	s.logger.Debug("devcore: core state", "state", string(state), "type", string(msgType), "message", message)
	s.status.Emit(info)
	return info
}

// State returns the current core state.
func (s *Server) State() rpc.CoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Settings returns the last settings document received.
func (s *Server) Settings() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// EndStatusStreams ends every open status stream and reports how many there
// were.
func (s *Server) EndStatusStreams() int {
	return s.status.CloseAll()
}

// StatusListeners returns the number of open status streams.
func (s *Server) StatusListeners() int {
	return s.status.Len()
}

// Push queues a raw response on the stream of extensionID.
func (s *Server) Push(extensionID string, resp rpc.ExtensionResponse) error {
	s.mu.Lock()
	h, ok := s.extensions[extensionID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("devcore: unknown extension %s", extensionID)
	}
	select {
	case h.queue <- &resp:
		return nil
	default:
		return ErrQueueFull
	}
}

// Enabled reports whether extensionID is enabled.
func (s *Server) Enabled(extensionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.extensions[extensionID]
	return ok && h.enabled
}

func (s *Server) record(c Call) error {
	if c.Data != nil {
		data := make(map[string]string, len(c.Data))
		for k, v := range c.Data {
			data[k] = v
		}
		c.Data = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if err, ok := s.failures[c.Method]; ok {
		delete(s.failures, c.Method)
		return err
	}
	return nil
}

func (s *Server) extension(id string) (*hosted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.extensions[id]
	if !ok {
		return nil, fmt.Errorf("Extension with ID %s not found", id)
	}
	if !h.enabled {
		return nil, fmt.Errorf("Extension with ID %s is not enabled", id)
	}
	if h.ext == nil {
		h.ext = h.factory.New()
	}
	return h, nil
}

func failed(id string, err error) *rpc.ExtensionActionResult {
	return &rpc.ExtensionActionResult{ExtensionID: id, Code: rpc.ResponseFailed, Message: err.Error()}
}

func success(id string) *rpc.ExtensionActionResult {
	return &rpc.ExtensionActionResult{ExtensionID: id, Code: rpc.ResponseOK, Message: "Success"}
}

func (s *Server) ListExtensions(_ context.Context, _ *rpc.Empty) (*rpc.ExtensionList, error) {
	if err := s.record(Call{Method: rpc.ExtensionListMethod}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := &rpc.ExtensionList{Extensions: make([]rpc.ExtensionMsg, 0, len(s.order))}
	for _, id := range s.order {
		h := s.extensions[id]
		list.Extensions = append(list.Extensions, rpc.ExtensionMsg{
			ID:          id,
			Title:       h.factory.Title,
			Description: h.factory.Description,
			Enable:      h.enabled,
		})
	}
	return list, nil
}

func (s *Server) EditExtension(_ context.Context, req *rpc.EditExtensionRequest) (*rpc.ExtensionActionResult, error) {
	if err := s.record(Call{Method: rpc.ExtensionEditMethod, ExtensionID: req.ExtensionID}); err != nil {
		return nil, err
	}

	s.mu.Lock()
	h, ok := s.extensions[req.ExtensionID]
	var closing Extension
	if ok {
		if !req.Enable && h.ext != nil {
			closing = h.ext
			h.ext = nil
			h.drain()
		}
		h.enabled = req.Enable
	}
	s.mu.Unlock()

	if !ok {
		return failed(req.ExtensionID, fmt.Errorf("Extension with ID %s not found", req.ExtensionID)), nil
	}
	if closing != nil {
		closing.Close()
	}
	s.logger.Info("devcore: extension toggled", "id", req.ExtensionID, "enable", req.Enable)
	return success(req.ExtensionID), nil
}

func (s *Server) Connect(req *rpc.ExtensionRequest, stream rpc.ServerStream[rpc.ExtensionResponse]) error {
	if err := s.record(Call{Method: rpc.ExtensionConnectMethod, ExtensionID: req.ExtensionID}); err != nil {
		return err
	}
	h, err := s.extension(req.ExtensionID)
	if err != nil {
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	h.drain()
	if err := h.Update(h.ext.Open()); err != nil {
		s.logger.Warn("devcore: initial ui", "id", req.ExtensionID, "error", err)
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case resp := <-h.queue:
			if err := stream.Send(resp); err != nil {
				return err
			}
			if resp.Type == rpc.ExtensionEnd {
				return nil
			}
		}
	}
}

func (s *Server) SubmitForm(_ context.Context, req *rpc.SendExtensionDataRequest) (*rpc.ExtensionActionResult, error) {
	if err := s.record(Call{Method: rpc.ExtensionSubmitFormMethod, ExtensionID: req.ExtensionID, Button: req.Button, Data: req.Data}); err != nil {
		return nil, err
	}
	h, err := s.extension(req.ExtensionID)
	if err != nil {
		return failed(req.ExtensionID, err), nil
	}
	if err := h.ext.Submit(h, req.Button, req.Data); err != nil {
		return failed(req.ExtensionID, err), nil
	}
	return success(req.ExtensionID), nil
}

func (s *Server) Cancel(_ context.Context, req *rpc.ExtensionRequest) (*rpc.ExtensionActionResult, error) {
	if err := s.record(Call{Method: rpc.ExtensionCancelMethod, ExtensionID: req.ExtensionID}); err != nil {
		return nil, err
	}
	h, err := s.extension(req.ExtensionID)
	if err != nil {
		return failed(req.ExtensionID, err), nil
	}
	if err := h.ext.Cancel(h); err != nil {
		return failed(req.ExtensionID, err), nil
	}
	return success(req.ExtensionID), nil
}

func (s *Server) Close(_ context.Context, req *rpc.ExtensionRequest) (*rpc.ExtensionActionResult, error) {
	if err := s.record(Call{Method: rpc.ExtensionCloseMethod, ExtensionID: req.ExtensionID}); err != nil {
		return nil, err
	}
	h, err := s.extension(req.ExtensionID)
	if err != nil {
		return failed(req.ExtensionID, err), nil
	}
	h.ext.Close()
	return success(req.ExtensionID), nil
}

func (s *Server) Start(ctx context.Context, req *rpc.StartRequest) (*rpc.CoreInfoResponse, error) {
	if err := s.record(Call{Method: rpc.CoreStartMethod}); err != nil {
		return nil, err
	}
	if s.State() == rpc.CoreStarted {
		return &rpc.CoreInfoResponse{CoreState: rpc.CoreStarted, MessageType: rpc.MessageAlreadyStarted}, nil
	}
	if req.ConfigContent == "" && req.ConfigPath == "" {
		info := s.SetState(rpc.CoreStopped, rpc.MessageEmptyConfiguration, "configuration is empty")
		return &info, nil
	}

	s.mu.Lock()
	s.config = req.ConfigContent
	s.mu.Unlock()

	s.SetState(rpc.CoreStarting, rpc.MessageEmpty, "")
	if s.startDelay > 0 {
		select {
		case <-ctx.Done():
			info := s.SetState(rpc.CoreStopped, rpc.MessageUnexpectedError, ctx.Err().Error())
			return &info, nil
		case <-time.After(s.startDelay):
		}
	}
	info := s.SetState(rpc.CoreStarted, rpc.MessageStartService, "")
	return &info, nil
}

func (s *Server) Stop(_ context.Context, _ *rpc.Empty) (*rpc.CoreInfoResponse, error) {
	if err := s.record(Call{Method: rpc.CoreStopMethod}); err != nil {
		return nil, err
	}
	if s.State() == rpc.CoreStopped {
		return &rpc.CoreInfoResponse{CoreState: rpc.CoreStopped, MessageType: rpc.MessageAlreadyStopped}, nil
	}
	s.SetState(rpc.CoreStopping, rpc.MessageEmpty, "")
	info := s.SetState(rpc.CoreStopped, rpc.MessageEmpty, "")
	return &info, nil
}

func (s *Server) Parse(_ context.Context, req *rpc.ParseRequest) (*rpc.ParseResponse, error) {
	if err := s.record(Call{Method: rpc.CoreParseMethod}); err != nil {
		return nil, err
	}
	if req.Content == "" {
		return &rpc.ParseResponse{ResponseCode: rpc.ResponseFailed, Message: "configuration is empty"}, nil
	}
	var doc any
	if err := json.Unmarshal([]byte(req.Content), &doc); err != nil {
		return &rpc.ParseResponse{ResponseCode: rpc.ResponseFailed, Message: err.Error()}, nil
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &rpc.ParseResponse{ResponseCode: rpc.ResponseFailed, Message: err.Error()}, nil
	}
	return &rpc.ParseResponse{ResponseCode: rpc.ResponseOK, Content: string(out)}, nil
}

func (s *Server) ChangeSettings(_ context.Context, req *rpc.ChangeSettingsRequest) (*rpc.CoreInfoResponse, error) {
	if err := s.record(Call{Method: rpc.CoreChangeSettingsMethod}); err != nil {
		return nil, err
	}
	if !json.Valid([]byte(req.SettingsJSON)) {
		return nil, status.Error(codes.InvalidArgument, "settings must be a JSON document")
	}
	s.mu.Lock()
	s.settings = req.SettingsJSON
	state := s.state
	s.mu.Unlock()
	return &rpc.CoreInfoResponse{CoreState: state}, nil
}

func (s *Server) CoreInfoListener(_ *rpc.Empty, stream rpc.ServerStream[rpc.CoreInfoResponse]) error {
	if err := s.record(Call{Method: rpc.CoreInfoListenerMethod}); err != nil {
		return err
	}
	sub, cancel := s.status.Subscribe()
	defer cancel()

	if err := stream.Send(&rpc.CoreInfoResponse{CoreState: s.State()}); err != nil {
		return err
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case info, ok := <-sub:
			if !ok {
				return nil
			}
			if err := stream.Send(&info); err != nil {
				return err
			}
		}
	}
}
