package authcore

import "context"

// SignUpInput carries everything a password sign-up needs. SessionID must
// refer to a verification session confirmed for the same Email.
type SignUpInput struct {
	SessionID       string
	Email           string
	Password        string
	ConfirmPassword string
	Nickname        string
	Gender          string
}

// SignUp creates a password account. The email must have passed code
// verification inside the confirmation window, must not already have an
// account, and the two password fields must agree.
//
// The verification session is left to expire on its own; sign-up does not
// consume it, so a transient failure after confirmation does not force the
// user back through the mail loop.
func (e *Engine) SignUp(ctx context.Context, in SignUpInput) (userID string, err error) {
	confirmed, err := e.CheckMailConfirmed(ctx, in.SessionID, in.Email)
	if err != nil {
		return "", err
	}
	if !confirmed {
		return "", unauthorized(CodeSessionExpired, "email not verified, request a new code")
	}

	existing, err := e.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return "", internalError(CodeUserStoreFailure, err)
	}
	if existing != nil {
		return "", invalidArgument("email", CodeEmailDuplicated, "an account with this email already exists")
	}

	if in.Password != in.ConfirmPassword {
		return "", invalidArgument("password", CodePasswordMismatch, "passwords do not match")
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return "", internalError(CodeCryptoFailure, err)
	}

	userID, err = e.users.CreateUser(ctx, CreateUserInput{
		Email:        in.Email,
		PasswordHash: hash,
		Profile: Profile{
			Nickname: in.Nickname,
			Gender:   in.Gender,
		},
	})
	if err != nil {
		return "", internalError(CodeUserStoreFailure, err)
	}
	return userID, nil
}

// OAuthSignUpInput carries the user-chosen fields of an OAuth sign-up; the
// email and provider come from the pending session, not the client.
type OAuthSignUpInput struct {
	Nickname string
	Gender   string
}

// CompleteOAuthSignUp turns a pending OAuth sign-up session into an account
// and signs the new user in. The session is deleted on success; replaying
// the same session id afterwards is an authorization failure, exactly as if
// it had expired.
func (e *Engine) CompleteOAuthSignUp(ctx context.Context, sessionID string, in OAuthSignUpInput) (*TokenPair, error) {
	key := oauthSignUpKey(sessionID)

	values, err := e.store.HGetAll(ctx, key)
	if err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}

	var email, provider, profileImg string
	found, err := values.Decode("email", &email)
	if err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}
	if !found {
		return nil, unauthorized(CodeSessionExpired, "sign-up session expired, sign in again")
	}
	if _, err := values.Decode("provider", &provider); err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}
	if _, err := values.Decode("profile_img", &profileImg); err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}

	userID, err := e.users.CreateUser(ctx, CreateUserInput{
		Email:     email,
		Providers: []Provider{Provider(provider)},
		Profile: Profile{
			Nickname:     in.Nickname,
			Gender:       in.Gender,
			ProfileImage: profileImg,
		},
	})
	if err != nil {
		return nil, internalError(CodeUserStoreFailure, err)
	}

	if err := e.store.Del(ctx, key); err != nil {
		return nil, internalError(CodeStoreFailure, err)
	}

	return e.IssueTokenPair(ctx, userID)
}
