package model

import "context"

// RecommendationSource is the data-source contract the deck consumes.
// The concrete transport (HTTP, auth headers) lives behind it.
type RecommendationSource interface {
	// FetchRecommendations returns the next page of candidates, excluding
	// the given ids. An empty slice with nil error means the server has
	// nothing further to offer.
	FetchRecommendations(ctx context.Context, excludeIDs []string) ([]Restaurant, error)

	// SubmitRating records a 1..5 rating for a restaurant the user ate at.
	SubmitRating(ctx context.Context, restaurantID string, rating int) error
}

// ProfileSource provides read/write access to the logged-in user's profile.
type ProfileSource interface {
	Profile(ctx context.Context) (*ProfileData, error)
	UpdateProfile(ctx context.Context, upd ProfileUpdate) (*Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
}
