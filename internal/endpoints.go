package internal

import (
	"fmt"
	"net/http"

	"github.com/bebevio27-prog/calendar/internal/ctxhelper"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/go-kit/kit/endpoint"
	"golang.org/x/net/context"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	List           endpoint.Endpoint
	Get            endpoint.Endpoint
	Create         endpoint.Endpoint
	Update         endpoint.Endpoint
	Delete         endpoint.Endpoint
	ListOverrides  endpoint.Endpoint
	SetOverride    endpoint.Endpoint
	DeleteOverride endpoint.Endpoint
}

// TimelineEndpoints is a collection of endpoints for the materialized calendar views
type TimelineEndpoints struct {
	Week endpoint.Endpoint
	Day  endpoint.Endpoint
}

// SessionEndpoints is a collection of endpoints for working with the session service
type SessionEndpoints struct {
	Login    endpoint.Endpoint
	Register endpoint.Endpoint
	Logout   endpoint.Endpoint
	WhoAmI   endpoint.Endpoint
}

// UserEndpoints is a collection of endpoints for working with the user's profile
type UserEndpoints struct {
	Profile       endpoint.Endpoint
	UpdateProfile endpoint.Endpoint
}

// The base for all responses which always contains an "ok" property to show if the call was successful and a
// data element containing the result of the request
type basicResponse struct {
	OK   bool        `json:"ok"`
	Data interface{} `json:"data,omitempty"`
}

// MakeEventEndpoints creates the endpoint collection for the event service
func MakeEventEndpoints(s EventService) EventEndpoints {
	return EventEndpoints{
		List:           EnsureUserLoggedIn(makeListEventsEndpoint(s)),
		Get:            EnsureUserLoggedIn(makeGetEventEndpoint(s)),
		Create:         EnsureUserLoggedIn(makeCreateEventEndpoint(s)),
		Update:         EnsureUserLoggedIn(makeUpdateEventEndpoint(s)),
		Delete:         EnsureUserLoggedIn(makeDeleteEventEndpoint(s)),
		ListOverrides:  EnsureUserLoggedIn(makeListOverridesEndpoint(s)),
		SetOverride:    EnsureUserLoggedIn(makeSetOverrideEndpoint(s)),
		DeleteOverride: EnsureUserLoggedIn(makeDeleteOverrideEndpoint(s)),
	}
}

// MakeTimelineEndpoints creates the endpoint collection for the timeline service
func MakeTimelineEndpoints(s TimelineService) TimelineEndpoints {
	return TimelineEndpoints{
		Week: EnsureUserLoggedIn(makeWeekEndpoint(s)),
		Day:  EnsureUserLoggedIn(makeDayEndpoint(s)),
	}
}

// MakeSessionEndpoints creates the endpoint collection for the session service
func MakeSessionEndpoints(s SessionService) SessionEndpoints {
	return SessionEndpoints{
		Login:    makeLoginEndpoint(s),
		Register: makeRegisterEndpoint(s),
		Logout:   makeLogoutEndpoint(s),
		WhoAmI:   makeWhoAmIEndpoint(s),
	}
}

// MakeUserEndpoints creates the endpoint collection for the user service
func MakeUserEndpoints(s UserService) UserEndpoints {
	return UserEndpoints{
		Profile:       EnsureUserLoggedIn(makeProfileEndpoint(s)),
		UpdateProfile: EnsureUserLoggedIn(makeUpdateProfileEndpoint(s)),
	}
}

// -- Event endpoints --------------------------------------------------------------------------------------------------

func makeListEventsEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		events, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, events}, nil
	}
}

func makeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		ev, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		event, ok := request.(models.Event)
		if !ok {
			return nil, fmt.Errorf("illegal event parameter")
		}
		ev, err := s.Create(ctx, &event)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeUpdateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventUpdateRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event update request")
		}
		ev, err := s.Update(ctx, req.ID, req.Patch)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, ev}, nil
	}
}

func makeDeleteEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal event ID")
		}
		if err := s.Delete(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeListOverridesEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		overrides, err := s.ListOverrides(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, overrides}, nil
	}
}

func makeSetOverrideEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		o, ok := request.(models.EventOverride)
		if !ok {
			return nil, fmt.Errorf("illegal override parameter")
		}
		stored, err := s.SetOverride(ctx, &o)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, stored}, nil
	}
}

func makeDeleteOverrideEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		id, ok := request.(uint)
		if !ok {
			return nil, fmt.Errorf("illegal override ID")
		}
		if err := s.DeleteOverride(ctx, id); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

// -- Timeline endpoints -----------------------------------------------------------------------------------------------

func makeWeekEndpoint(s TimelineService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(dateRequest)
		if !ok {
			return nil, fmt.Errorf("illegal week request")
		}
		view, err := s.Week(ctx, req.Date)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, view}, nil
	}
}

func makeDayEndpoint(s TimelineService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(dateRequest)
		if !ok {
			return nil, fmt.Errorf("illegal day request")
		}
		view, err := s.Day(ctx, req.Date)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, view}, nil
	}
}

// -- Session endpoints ------------------------------------------------------------------------------------------------

func makeLoginEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		se, ok := request.(loginRequest)
		if !ok {
			return nil, fmt.Errorf("illegal login request")
		}
		si, err := s.Login(ctx, se.Email, se.Pass)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeRegisterEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		se, ok := request.(registerRequest)
		if !ok {
			return nil, fmt.Errorf("illegal register request")
		}
		si, err := s.Register(ctx, se.Email, se.Pass, se.Name)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

func makeLogoutEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		sess := ctxhelper.Session(ctx)
		if sess == nil {
			// Logging out without a session is a no-op
			return basicResponse{true, nil}, nil
		}
		if err := s.Logout(ctx, sess.ID); err != nil {
			return nil, err
		}
		return basicResponse{true, nil}, nil
	}
}

func makeWhoAmIEndpoint(s SessionService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		sess := ctxhelper.Session(ctx)
		if sess == nil {
			return nil, MakeError(http.StatusForbidden, ErrCodeNotLoggedIn, "No active session")
		}
		si, err := s.WhoAmI(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, si}, nil
	}
}

// -- User endpoints ---------------------------------------------------------------------------------------------------

func makeProfileEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		u, err := s.Profile(ctx)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, u}, nil
	}
}

func makeUpdateProfileEndpoint(s UserService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		patch, ok := request.(ProfilePatch)
		if !ok {
			return nil, fmt.Errorf("illegal profile update request")
		}
		u, err := s.UpdateProfile(ctx, patch)
		if err != nil {
			return nil, err
		}
		return basicResponse{true, u}, nil
	}
}
