// Package secrets reads values from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/pkg/errors"
)

// Getter is an abstraction (helpful for testing)
type Getter interface {
	GetSecretValueWithContext(aws.Context, *secretsmanager.GetSecretValueInput, ...request.Option) (*secretsmanager.GetSecretValueOutput, error)
}

// Store reads secrets
type Store struct {
	sm Getter
}

// NewStore returns a new Store
func NewStore(g Getter) *Store {
	return &Store{sm: g}
}

// IsARN reports whether s names a Secrets Manager secret
func IsARN(s string) bool {
	return strings.HasPrefix(s, "arn:aws:secretsmanager:")
}

// String returns the secret string stored under id
func (s *Store) String(ctx context.Context, id string) (string, error) {

	out, err := s.sm.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to get secret")
	}
	if out.SecretString == nil {
		return "", errors.Errorf("secret %s has no string value", id)
	}
	return *out.SecretString, nil
}

// JSON decodes the secret stored under id into v
func (s *Store) JSON(ctx context.Context, id string, v interface{}) error {

	str, err := s.String(ctx, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(str), v); err != nil {
		return errors.Wrap(err, "failed to decode secret")
	}
	return nil
}

// DBCredentials is the RDS secret layout
type DBCredentials struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
}

// DSN builds a PostgreSQL connection URL
func (c DBCredentials) DSN() string {
	port := c.Port.String()
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, port),
		Path:   "/" + c.DBName,
	}
	return u.String()
}
