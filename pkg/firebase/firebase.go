package firebase

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and its auth and messaging clients
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Messaging   *messaging.Client
}

// InitFirebase initializes the Firebase application. Base64 encoded service
// account JSON takes precedence over the credentials file.
func InitFirebase(ctx context.Context, credentialsPath, encodedJSON string) (*App, error) {
	opt, err := credentials(credentialsPath, encodedJSON)
	if err != nil {
		return nil, err
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Messaging: messagingClient}, nil
}

func credentials(path, encodedJSON string) (option.ClientOption, error) {
	if encodedJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedJSON)
		if err != nil {
			return nil, fmt.Errorf("decode FCM_SERVICE_ACCOUNT_JSON: %w", err)
		}
		return option.WithCredentialsJSON(decoded), nil
	}
	if path == "" {
		return nil, fmt.Errorf("firebase credentials not provided")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", path)
	}
	return option.WithCredentialsFile(path), nil
}
