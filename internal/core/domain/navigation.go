package domain

import (
	"net/url"
)

// TravelModeDriving is the only travel mode the gateway hands off.
const TravelModeDriving = "driving"

const directionsBaseURL = "https://www.google.com/maps/dir/"

// NavigationRequest describes an external turn-by-turn hand-off. It is an
// opaque descriptor: the gateway publishes it and never inspects the outcome.
type NavigationRequest struct {
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
	TravelMode  string     `json:"travelmode"`
}

// NewNavigationRequest builds a driving-mode hand-off between two coordinates.
// Pure; no state is touched.
func NewNavigationRequest(origin, destination Coordinate) NavigationRequest {
	return NavigationRequest{
		Origin:      origin,
		Destination: destination,
		TravelMode:  TravelModeDriving,
	}
}

// URL renders the Google Maps directions link the shell opens in a new,
// non-opener-linked context.
func (r NavigationRequest) URL() string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", r.Origin.String())
	q.Set("destination", r.Destination.String())
	q.Set("travelmode", r.TravelMode)
	return directionsBaseURL + "?" + q.Encode()
}
