package cli

import (
	"context"

	"github.com/sku-codemong/codemong-Backend-02/internal/shared"
)

func (a *App) readCredentials() (string, []byte, error) {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return a.fail("register", err)
	}
	defer shared.WipeByteArray(password)

	nickname, err := GetSimpleText(a.reader, "-Enter nickname", a.out)
	if err != nil {
		return a.fail("register", err)
	}

	u, err := a.api.Register(ctx, email, string(password), nickname)
	if err != nil {
		return a.fail("register", err)
	}
	a.printf("Registered user #%d, you can login now\n", u.ID)
	return nil
}

// Login authenticates and starts listening for realtime events.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return a.fail("login", err)
	}
	defer shared.WipeByteArray(password)

	u, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return a.fail("login", err)
	}
	a.printf("Logged in as %s (#%d)\n", u.Nickname, u.ID)

	return a.Listen(ctx)
}

func (a *App) Refresh(ctx context.Context) error {
	if _, err := a.api.Refresh(ctx); err != nil {
		return a.fail("refresh", err)
	}
	a.printf("Session refreshed\n")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	uid, err := a.api.Ping(ctx)
	if err != nil {
		return a.fail("ping", err)
	}
	a.printf("pong, user #%d\n", uid)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return a.fail("me", err)
	}
	a.printf("#%d %s <%s> completed=%t\n", u.ID, u.Nickname, u.Email, u.IsCompleted)
	if u.ProfileImageURL != nil {
		a.printf("  image: %s\n", *u.ProfileImageURL)
	}
	return nil
}

// Logout stops the listener first so the stream does not outlive the session.
func (a *App) Logout(ctx context.Context, allDevices bool) error {
	a.StopListening()
	if err := a.api.Logout(ctx, allDevices); err != nil {
		return a.fail("logout", err)
	}
	if allDevices {
		a.printf("Logged out on all devices\n")
	} else {
		a.printf("Logged out\n")
	}
	return nil
}
