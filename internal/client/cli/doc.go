// Package cli provides the interactive codemong command-line client.
//
// The client logs in over the REST API, keeps the refresh cookie for the
// session, and listens on the realtime gRPC stream, printing every event it
// receives. When the server ends the stream because the access token expired,
// the listener refreshes the session and subscribes again.
//
// Commands: register, login, me, ping, refresh, listen, stop, friend <id>,
// requests, accept <id>, reject <id>, avatar <path>, logout, logoutall, exit.
//
// The REPL is started with App.Run, which blocks until the user exits.
package cli
