package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bebevio27-prog/calendar/internal/ctxhelper"
	"github.com/bebevio27-prog/calendar/internal/log"
	"github.com/bebevio27-prog/calendar/internal/models"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	apiBasePath = "/api"
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

type errorResponse struct {
	basicResponse
	// The error code
	Error   string      `json:"error"`
	Message string      `json:"errorMessage"`
	Details interface{} `json:"errorDetails,omitempty"`
}

// MakeHTTPHandler creates the main HTTP handler for the calendar service
func MakeHTTPHandler(
	es EventService,
	ts TimelineService,
	us UserService,
	sServ SessionService,
	logger *logrus.Entry,
) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
		httptransport.ServerBefore(makeSessionDecoder(sServ)),
	}

	// -- Session service ------------------------------
	{
		sessionEndpoints := MakeSessionEndpoints(sServ)

		// Login
		r.Methods(http.MethodPost).Path(apiBasePath + "/session").Handler(httptransport.NewServer(
			sessionEndpoints.Login,
			decodeLoginRequest,
			encodeJSONResponse,
			options...,
		))

		// WhoAmI
		r.Methods(http.MethodGet).Path(apiBasePath + "/session").Handler(httptransport.NewServer(
			sessionEndpoints.WhoAmI,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Logout
		r.Methods(http.MethodDelete).Path(apiBasePath + "/session").Handler(httptransport.NewServer(
			sessionEndpoints.Logout,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Register
		r.Methods(http.MethodPost).Path(apiBasePath + "/users").Handler(httptransport.NewServer(
			sessionEndpoints.Register,
			decodeRegisterRequest,
			encodeJSONResponse,
			options...,
		))
	}

	// -- User service ---------------------------------
	{
		userEndpoints := MakeUserEndpoints(us)

		// Profile
		r.Methods(http.MethodGet).Path(apiBasePath + "/profile").Handler(httptransport.NewServer(
			userEndpoints.Profile,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// UpdateProfile
		r.Methods(http.MethodPut).Path(apiBasePath + "/profile").Handler(httptransport.NewServer(
			userEndpoints.UpdateProfile,
			decodeProfilePatch,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Event service --------------------------------
	{
		eventEndpoints := MakeEventEndpoints(es)

		// List
		r.Methods(http.MethodGet).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			eventEndpoints.List,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// Create
		r.Methods(http.MethodPost).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			eventEndpoints.Create,
			decodeEvent,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			eventEndpoints.Get,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			eventEndpoints.Update,
			decodeEventUpdateRequest,
			encodeJSONResponse,
			options...,
		))

		// Delete
		r.Methods(http.MethodDelete).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			eventEndpoints.Delete,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))

		// ListOverrides
		r.Methods(http.MethodGet).Path(apiBasePath + "/overrides").Handler(httptransport.NewServer(
			eventEndpoints.ListOverrides,
			decodeNilRequest,
			encodeJSONResponse,
			options...,
		))

		// SetOverride
		r.Methods(http.MethodPut).Path(apiBasePath + "/overrides").Handler(httptransport.NewServer(
			eventEndpoints.SetOverride,
			decodeOverride,
			encodeJSONResponse,
			options...,
		))

		// DeleteOverride
		r.Methods(http.MethodDelete).Path(apiBasePath + "/overrides/{id}").Handler(httptransport.NewServer(
			eventEndpoints.DeleteOverride,
			decodeIDFromPath,
			encodeJSONResponse,
			options...,
		))
	}

	// -- Timeline service -----------------------------
	{
		timelineEndpoints := MakeTimelineEndpoints(ts)

		// Week
		r.Methods(http.MethodGet).Path(apiBasePath + "/timeline/week").Handler(httptransport.NewServer(
			timelineEndpoints.Week,
			decodeDateRequest,
			encodeJSONResponse,
			options...,
		))

		// Day
		r.Methods(http.MethodGet).Path(apiBasePath + "/timeline/day").Handler(httptransport.NewServer(
			timelineEndpoints.Day,
			decodeDateRequest,
			encodeJSONResponse,
			options...,
		))
	}

	// Liveness probe for the systemd watchdog
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	return r
}

// makeContextInjector injects the base logger into each request's context
func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return context.WithValue(ctx, ctxhelper.KeyLogger, logger)
	}
}

// makeSessionDecoder resolves the "token" request header into the session and user
// objects stored in the request context
func makeSessionDecoder(s SessionService) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		token := strings.TrimSpace(r.Header.Get("token"))
		logger := ctxhelper.Logger(ctx)
		if token != "" {
			// Try to load the session's data
			sess, user, err := s.GetContents(ctx, token, true)
			if err != nil {
				logger.WithError(err).WithField(log.FldSession, token).Error("Failed to retrieve session information")
				return ctx
			}
			if sess == nil || user == nil {
				// Nobody logged in
				return ctx
			}
			ctx = context.WithValue(ctx, ctxhelper.KeySession, *sess)
			ctx = context.WithValue(ctx, ctxhelper.KeyUser, *user)
			ctx = context.WithValue(ctx, ctxhelper.KeyLogger, logger.WithFields(logrus.Fields{
				log.FldSession: sess.ID,
				log.FldUser:    user.ID,
			}))
		}
		return ctx
	}
}

// -- Request decoders -------------------------------------------------------------------------------------------------

func decodeNilRequest(_ context.Context, r *http.Request) (request interface{}, err error) {
	return nil, nil
}

// getUintFromPath extracts a uint value from the given path parameter
func getUintFromPath(name string, r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	strVal, ok := vars[name]
	if !ok {
		return 0, MakeError(
			http.StatusBadRequest,
			ErrCodeInvalidUint,
			fmt.Sprintf("Path parameter '%s' missing", name),
		)
	}
	val, err := strconv.ParseUint(strVal, 10, 32)
	if err != nil {
		return 0, MakeError(
			http.StatusBadRequest,
			ErrCodeInvalidUint,
			fmt.Sprintf("Path parameter '%s' is not a valid ID", name),
		)
	}
	return uint(val), nil
}

func decodeIDFromPath(ctx context.Context, r *http.Request) (interface{}, error) {
	return getUintFromPath("id", r)
}

func decodeLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return req, nil
}

func decodeRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return req, nil
}

func decodeProfilePatch(_ context.Context, r *http.Request) (interface{}, error) {
	var patch ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return patch, nil
}

func decodeEvent(_ context.Context, r *http.Request) (interface{}, error) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return ev, nil
}

func decodeEventUpdateRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	id, err := getUintFromPath("id", r)
	if err != nil {
		return nil, err
	}
	var patch EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return eventUpdateRequest{ID: id, Patch: patch}, nil
}

func decodeOverride(_ context.Context, r *http.Request) (interface{}, error) {
	var o models.EventOverride
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		return nil, MakeError(
			http.StatusBadRequest,
			ErrCodeIllegalJSON,
			fmt.Sprintf("Failed to decode JSON body: %v", err),
		)
	}
	return o, nil
}

func decodeDateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return dateRequest{Date: r.URL.Query().Get("date")}, nil
}

// -- Response encoders ------------------------------------------------------------------------------------------------

func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if st, ok := err.(httpStatuser); ok {
		w.WriteHeader(st.Status())
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	ret := errorResponse{
		basicResponse: basicResponse{false, nil},
		Message:       err.Error(),
		Error:         ErrCodeUnknown,
	}
	if cd, ok := err.(errorCoder); ok {
		ret.Error = cd.ErrorCode()
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if err, ok := data.(error); ok {
				ret.Details = err.Error()
			} else {
				ret.Details = data
			}
		}
	}
	json.NewEncoder(w).Encode(&ret)
}
