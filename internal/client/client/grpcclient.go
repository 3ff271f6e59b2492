package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/resilience"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodPrefix = "/profilesync.v1.Backend/"

	methodPing         = "Ping"
	methodSignIn       = "SignInWithPassword"
	methodSignUp       = "SignUp"
	methodSignOut      = "SignOut"
	methodRefreshToken = "RefreshToken"
	methodFindOne      = "FindOne"
	methodUpdateOne    = "UpdateOne"
	methodListGoals    = "ListGoals"
	methodListBadges   = "ListBadges"
	methodListHistory  = "ListHistory"
	methodWatchAuth    = "WatchAuth"
)

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	cc             grpc.ClientConnInterface
	sessions       SessionStore
	breaker        *resilience.Breaker
	logger         logging.Logger
	requestTimeout time.Duration
	watchBackoff   time.Duration
	now            func() time.Time

	mu      sync.RWMutex
	session *models.Session

	subsMu      sync.Mutex
	subs        map[int]func(models.AuthEvent)
	nextSubID   int
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

type Option func(*GRPCClient)

func WithBreaker(b *resilience.Breaker) Option {
	return func(c *GRPCClient) { c.breaker = b }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.requestTimeout = d }
}

// NewGRPCClient connects lazily to endpointURL. sessions may be nil, in
// which case the session lives only in memory.
func NewGRPCClient(endpointURL string, sessions SessionStore, logger logging.Logger, opts ...Option) (*GRPCClient, error) {
	c := newGRPCClient(nil, sessions, logger, opts...)
	c.endpointURL = endpointURL
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func newGRPCClient(cc grpc.ClientConnInterface, sessions SessionStore, logger logging.Logger, opts ...Option) *GRPCClient {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &GRPCClient{
		cc:           cc,
		sessions:     sessions,
		logger:       logger.With("component", "backend"),
		watchBackoff: 2 * time.Second,
		now:          time.Now,
		subs:         make(map[int]func(models.AuthEvent)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.cc = conn
	return nil
}

// accessTokenInterceptor attaches the access token and, when the backend
// reports it expired, refreshes once and replays the call.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()
	if access != "" {
		ctx = withAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil || method == methodPrefix+methodRefreshToken {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refresh == "" {
		return err
	}

	if _, err := s.refresh(ctx); err != nil {
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (s *GRPCClient) Close() error {
	s.stopWatch()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp pingReply
	if err := s.invoke(ctx, methodPing, empty{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) GetSession(ctx context.Context) (*models.Session, error) {
	sess := s.currentSession()
	if sess == nil && s.sessions != nil {
		stored, err := s.sessions.LoadSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocalDataNotAvailable, err)
		}
		if stored != nil {
			s.mu.Lock()
			s.session = stored
			s.mu.Unlock()
			sess = stored
		}
	}
	if sess == nil {
		return nil, nil
	}

	if !sessionExpired(sess, s.now()) {
		return sess, nil
	}
	if sess.RefreshToken == "" {
		s.dropSession(ctx)
		return nil, nil
	}
	return s.refresh(ctx)
}

func (s *GRPCClient) SignInWithPassword(ctx context.Context, email, password string) (*models.User, error) {
	var resp sessionReply
	if err := s.invoke(ctx, methodSignIn, signInRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Session == nil {
		return nil, ErrUnauthorized
	}

	s.storeSession(ctx, resp.Session)
	s.emit(models.AuthEvent{Type: models.AuthEventSignedIn, Session: resp.Session})

	user := resp.Session.User
	return &user, nil
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password, name string) (*models.PendingUser, error) {
	var resp signUpReply
	if err := s.invoke(ctx, methodSignUp, signUpRequest{Email: email, Password: password, Name: name}, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return &models.PendingUser{Email: email, Name: name}, nil
	}
	return resp.User, nil
}

// SignOut always forgets the local session, even when the call fails.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	defer func() {
		s.dropSession(context.WithoutCancel(ctx))
		s.emit(models.AuthEvent{Type: models.AuthEventSignedOut})
	}()

	if access, _ := s.tokens(); access == "" {
		return nil
	}
	return s.invoke(ctx, methodSignOut, empty{}, nil)
}

func (s *GRPCClient) FindOne(ctx context.Context, userID string) (*models.Profile, error) {
	var resp profileReply
	err := s.invoke(ctx, methodFindOne, userRequest{UserID: userID}, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (s *GRPCClient) UpdateOne(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	var resp profileReply
	if err := s.invoke(ctx, methodUpdateOne, updateRequest{UserID: userID, Patch: patch}, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (s *GRPCClient) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	var resp goalsReply
	if err := s.invoke(ctx, methodListGoals, userRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return resp.Goals, nil
}

func (s *GRPCClient) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	var resp badgesReply
	if err := s.invoke(ctx, methodListBadges, userRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return resp.Badges, nil
}

func (s *GRPCClient) ListHistory(ctx context.Context, userID string) ([]models.HistoryItem, error) {
	var resp historyReply
	if err := s.invoke(ctx, methodListHistory, userRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// invoke runs one unary call through the circuit breaker. reply may be nil
// when the response body is not needed.
func (s *GRPCClient) invoke(ctx context.Context, method string, req, reply any) error {
	if s.breaker != nil {
		if err := s.breaker.Enter(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	in, err := encode(req)
	if err != nil {
		s.record(nil)
		return err
	}

	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	out := &structpb.Struct{}
	if err := s.cc.Invoke(ctx, methodPrefix+method, in, out); err != nil {
		mapped := s.mapError(err)
		s.record(mapped)
		return mapped
	}
	s.record(nil)

	if reply == nil {
		return nil
	}
	if err := decode(out, reply); err != nil {
		return fmt.Errorf("%s reply: %w", method, err)
	}
	return nil
}

// record settles the call admitted by the breaker. Only outages count
// against the backend; any other error is an answer from it.
func (s *GRPCClient) record(err error) {
	if s.breaker == nil {
		return
	}
	switch {
	case err == nil:
		s.breaker.Leave(resilience.Succeeded)
	case errors.Is(err, ErrUnavailable):
		s.breaker.Leave(resilience.Failed)
	default:
		s.breaker.Leave(resilience.Refused)
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument, codes.AlreadyExists, codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (s *GRPCClient) refresh(ctx context.Context) (*models.Session, error) {
	_, refreshToken := s.tokens()

	var resp sessionReply
	if err := s.invoke(ctx, methodRefreshToken, refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			s.dropSession(ctx)
		}
		return nil, err
	}
	if resp.Session == nil {
		return nil, fmt.Errorf("%s reply: empty session", methodRefreshToken)
	}

	s.storeSession(ctx, resp.Session)
	s.emit(models.AuthEvent{Type: models.AuthEventTokenRefreshed, Session: resp.Session})
	return resp.Session, nil
}

func (s *GRPCClient) currentSession() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return "", ""
	}
	return s.session.AccessToken, s.session.RefreshToken
}

func (s *GRPCClient) storeSession(ctx context.Context, sess *models.Session) {
	copied := *sess
	s.mu.Lock()
	s.session = &copied
	s.mu.Unlock()

	if s.sessions == nil {
		return
	}
	if err := s.sessions.SaveSession(ctx, &copied); err != nil {
		s.logger.Warn(ctx, "failed to persist session", "error", err)
	}
}

func (s *GRPCClient) dropSession(ctx context.Context) {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.sessions == nil {
		return
	}
	if err := s.sessions.ClearSession(ctx); err != nil {
		s.logger.Warn(ctx, "failed to clear session", "error", err)
	}
}
