package jenkins

import "context"

// ShortUser is the reference to a user found in culprits and change sets.
type ShortUser struct {
	AbsoluteURL string `json:"absoluteUrl"`
	FullName    string `json:"fullName"`
}

// User is a Jenkins user.
type User struct {
	Class       string     `json:"_class"`
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	AbsoluteURL string     `json:"absoluteUrl"`
	Description string     `json:"description"`
	Property    Properties `json:"property"`
}

// Email returns the address configured for the mailer plugin.
func (u *User) Email() string {
	for _, property := range u.Property {
		if mailer, ok := property.(*MailerUserProperty); ok {
			return mailer.Address
		}
	}

	return ""
}

// UserClient is a client for the users API.
type UserClient struct {
	client *Client
}

// Get returns the user with the given id.
func (c *UserClient) Get(ctx context.Context, id string) (*User, error) {
	result := &User{}

	if err := c.client.Get(ctx, UserPath{ID: id}, nil, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Full resolves a short user reference.
func (c *UserClient) Full(ctx context.Context, user ShortUser) (*User, error) {
	p, ok := ParsePath(c.client.endpoint, user.AbsoluteURL).(UserPath)

	if !ok {
		return nil, &InvalidURLError{URL: user.AbsoluteURL, Expected: "user"}
	}

	return c.Get(ctx, p.ID)
}
