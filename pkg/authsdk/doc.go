/*
Package authsdk is the Go client for the login service.

An email login always needs a code:

	client := authsdk.NewSDKClient("https://auth.example.com")

	res, err := client.LoginWithEmail(ctx, "ada@example.com")
	if err != nil {
		return err
	}
	// The code arrives by mail.
	res, err = client.Verify(ctx, res.PendingToken, code)

A GitHub login returns a session straight away unless the account still
needs verification:

	res, err := client.LoginWithGitHub(ctx, oauthCode)
	if err == nil && res.Pending() {
		res, err = client.Verify(ctx, res.PendingToken, code)
	}

Every non-2xx reply comes back as an *APIError. Compare with errors.Is
against the predefined values:

	if errors.Is(err, authsdk.ErrInvalidCode) {
		// Wrong, expired or reused code. The service never says which.
	}
	if errors.Is(err, authsdk.ErrRateLimited) {
		// Too many attempts for this account.
	}

Access tokens are bearer JWTs. Session resolves one back to its account:

	acct, err := client.Session(ctx, res.AccessToken)
*/
package authsdk
