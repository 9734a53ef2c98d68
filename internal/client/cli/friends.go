package cli

import (
	"context"
	"fmt"
	"strconv"
)

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", args[0])
	}
	return id, nil
}

func (a *App) AddFriend(ctx context.Context, args []string) error {
	target, err := parseID(args)
	if err != nil {
		return a.fail("friend", err)
	}
	req, err := a.api.SendFriendRequest(ctx, target)
	if err != nil {
		return a.fail("friend", err)
	}
	a.printf("Friend request #%d sent to user #%d\n", req.ID, req.ToUserID)
	return nil
}

func (a *App) Requests(ctx context.Context) error {
	list, err := a.api.IncomingFriendRequests(ctx)
	if err != nil {
		return a.fail("requests", err)
	}
	if len(list) == 0 {
		a.printf("No pending requests\n")
		return nil
	}
	for _, r := range list {
		a.printf("#%d from %s (#%d) at %s\n", r.ID, r.FromNickname, r.FromUserID, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Respond accepts or rejects the request whose id is the first argument.
func (a *App) Respond(ctx context.Context, args []string, action string) error {
	id, err := parseID(args)
	if err != nil {
		return a.fail(action, err)
	}
	result, err := a.api.RespondFriendRequest(ctx, id, action)
	if err != nil {
		return a.fail(action, err)
	}
	a.printf("Request #%d %s\n", id, result)
	return nil
}
