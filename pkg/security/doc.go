/*
Package security provides credential handling and authentication for
Callisto: the OAuth credential source, console sessions, and data-plane
API key auth.

# OAuth Credentials

Read the Claude CLI credential file and watch it for rotation:

	source, err := credentials.NewSource(cfg.Credentials.Path, true)
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()

	token, err := source.Token(ctx)

# Console Sessions

Issue and verify session tokens for the admin console:

	sessions, err := session.NewManager(cfg.Console)
	if err != nil {
		log.Fatal(err)
	}

	token, expiresAt, err := sessions.Login(password)

# API Key Authentication

Authenticate data-plane requests against the key store:

	middleware := auth.NewMiddleware(keyStore, collector)

	http.Handle("/", middleware.Handle(handler))
*/
package security
