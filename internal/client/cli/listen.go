package cli

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sku-codemong/codemong-Backend-02/internal/client/client"
	"github.com/sku-codemong/codemong-Backend-02/internal/client/models"
)

// quickFailure is how soon a stream must fail after a refresh for the
// listener to give up instead of refreshing again.
const quickFailure = time.Second

func (a *App) isListening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopListen != nil
}

// Listen subscribes to the realtime stream in the background. Calling it
// while a listener runs is a no-op.
func (a *App) Listen(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.fail("listen", client.ErrNotLoggedIn)
	}

	a.mu.Lock()
	if a.stopListen != nil {
		a.mu.Unlock()
		return nil
	}
	lctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.stopListen = cancel
	a.listenDone = done
	a.mu.Unlock()

	go func() {
		defer close(done)
		err := a.listen(lctx)

		a.mu.Lock()
		if a.listenDone == done {
			a.stopListen = nil
			a.listenDone = nil
		}
		a.mu.Unlock()
		cancel()

		if err != nil {
			a.printf("realtime stream closed: %v\n", err)
		}
	}()

	a.printf("Listening for realtime events\n")
	return nil
}

// StopListening cancels the listener and waits for it to exit.
func (a *App) StopListening() {
	a.mu.Lock()
	cancel, done := a.stopListen, a.listenDone
	a.stopListen, a.listenDone = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// listen runs subscriptions until ctx ends. An Unauthenticated end of stream
// triggers one refresh and a new subscription.
func (a *App) listen(ctx context.Context) error {
	retried := false
	for {
		started := a.now()
		err := a.realtime.Subscribe(ctx, a.api.AccessToken(), a.printEvent)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return errors.New("server ended the stream")
		}
		if !errors.Is(err, client.ErrUnauthorized) {
			return err
		}
		if retried && a.now().Sub(started) < quickFailure {
			return err
		}
		if _, rerr := a.api.Refresh(ctx); rerr != nil {
			return errors.Join(err, rerr)
		}
		retried = true
	}
}

func (a *App) printEvent(ev models.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	a.printf("\n[event] %s %s\n", ev.Type, payload)
}
