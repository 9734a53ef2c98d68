package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/client"
	"github.com/sku-codemong/codemong-Backend-02/internal/client/config"
	"github.com/sku-codemong/codemong-Backend-02/internal/client/models"
	"github.com/sku-codemong/codemong-Backend-02/internal/netx"
)

// sessionAPI is the REST surface the commands use. *client.HTTPClient
// satisfies it.
type sessionAPI interface {
	Register(ctx context.Context, email, password, nickname string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Refresh(ctx context.Context) (string, error)
	Ping(ctx context.Context) (int64, error)
	Me(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, allDevices bool) error
	SendFriendRequest(ctx context.Context, targetUserID int64) (*models.FriendRequest, error)
	IncomingFriendRequests(ctx context.Context) ([]models.FriendRequest, error)
	RespondFriendRequest(ctx context.Context, requestID int64, action string) (string, error)
	ProfileImageUploadURL(ctx context.Context, filename, contentType string, size int64) (*models.Upload, error)
	CommitProfileImage(ctx context.Context, key string) (*models.User, error)
	AccessToken() string
	User() *models.User
}

type realtimeAPI interface {
	Subscribe(ctx context.Context, accessToken string, fn func(models.Event)) error
	Close() error
}

type App struct {
	config   *config.Config
	api      sessionAPI
	realtime realtimeAPI
	reader   *bufio.Reader
	out      io.Writer
	upload   func(ctx context.Context, url, contentType string, data []byte) error
	now      func() time.Time

	mu         sync.Mutex
	stopListen context.CancelFunc
	listenDone chan struct{}
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewHTTPClient(c.ServerHTTPAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	rt, err := client.NewRealtimeClient(c.ServerGRPCAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		api:      api,
		realtime: rt,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		upload:   netx.UploadToS3PresignedURL,
		now:      time.Now,
	}, nil
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.realtime.Close()
	defer a.StopListening()

	a.printf("Welcome to codemong CLI (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) isLoggedIn() bool {
	return a.api.AccessToken() != ""
}

func (a *App) getStatus() string {
	u := a.api.User()
	if u == nil {
		return "(guest)"
	}
	s := fmt.Sprintf("%s #%d", u.Nickname, u.ID)
	if a.isListening() {
		s += " live"
	}
	return "(" + s + ")"
}

// printf serializes output from the REPL and the listener goroutine.
func (a *App) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) fail(what string, err error) error {
	a.printf("%s failed: %v\n", what, err)
	return err
}
