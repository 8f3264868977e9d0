package domain

// Default viewport when no origin is known yet (downtown San Francisco).
var DefaultMapCenter = Coordinate{Lat: 37.7749, Lng: -122.4194}

const DefaultMapZoom = 13

// MapMarker is a single point rendered on the tile map.
type MapMarker struct {
	Kind       string     `json:"kind"` // "origin" | "destination"
	Coordinate Coordinate `json:"coordinate"`
}

// MapView is everything the tile map collaborator needs: markers for the
// coordinates that exist, a connecting line when both do, and a fitted view.
// The map's click event flows back in through the refine operation.
type MapView struct {
	Center  Coordinate   `json:"center"`
	Zoom    int          `json:"zoom"`
	Markers []MapMarker  `json:"markers"`
	Path    []Coordinate `json:"path,omitempty"`
	Fit     *Bounds      `json:"fit,omitempty"`
}

// BuildMapView assembles the view model from whichever coordinates are present.
func BuildMapView(origin, destination *Coordinate) MapView {
	view := MapView{Center: DefaultMapCenter, Zoom: DefaultMapZoom}

	if origin != nil {
		view.Center = *origin
		view.Markers = append(view.Markers, MapMarker{Kind: "origin", Coordinate: *origin})
	}
	if destination != nil {
		view.Markers = append(view.Markers, MapMarker{Kind: "destination", Coordinate: *destination})
	}
	if origin != nil && destination != nil {
		view.Path = []Coordinate{*origin, *destination}
		if b, ok := BoundsAround(*origin, *destination); ok {
			view.Fit = &b
		}
	}
	return view
}
