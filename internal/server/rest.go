package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goevery/chatrelay/internal/auth"
	"github.com/goevery/chatrelay/internal/ierr"
	"github.com/goevery/chatrelay/internal/persistence"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RESTServer hosts the request/response collaborators around the relay:
// credential storage and login, group-membership CRUD and message history.
type RESTServer struct {
	logger        *zap.Logger
	authenticator *auth.Authenticator
	users         persistence.UserStore
	groups        persistence.GroupStore
	messages      persistence.MessageStore
}

func NewRESTServer(
	logger *zap.Logger,
	authenticator *auth.Authenticator,
	users persistence.UserStore,
	groups persistence.GroupStore,
	messages persistence.MessageStore,
) *RESTServer {
	return &RESTServer{
		logger,
		authenticator,
		users,
		groups,
		messages,
	}
}

func (s *RESTServer) Register(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/auth/register", s.handleRegister).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/users", s.handleListUsers).Methods("GET", "OPTIONS")
	api.HandleFunc("/group/create", s.handleCreateGroup).Methods("POST", "OPTIONS")
	api.HandleFunc("/group/all/{userId}", s.handleGroupsForUser).Methods("GET", "OPTIONS")
	api.HandleFunc("/message", s.handleCreateMessage).Methods("POST", "OPTIONS")
	api.HandleFunc("/message/private/{user1}/{user2}", s.handlePrivateHistory).Methods("GET", "OPTIONS")
	api.HandleFunc("/message/group/{groupId}", s.handleGroupHistory).Methods("GET", "OPTIONS")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *RESTServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	if req.Username == "" || req.Password == "" {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("username and password are required")))
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.users.Create(r.Context(), req.Username, passwordHash)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

type loginResponse struct {
	Token string           `json:"token"`
	User  persistence.User `json:"user"`
}

func (s *RESTServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	invalidCredentials := ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("invalid credentials"))

	user, err := s.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		var codedErr ierr.Error
		if errors.As(err, &codedErr) && codedErr.Code == ierr.ErrorCodeNotFound {
			err = invalidCredentials
		}
		s.writeError(w, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.writeError(w, invalidCredentials)
		return
	}

	token, err := s.authenticator.IssueToken(user.Id, user.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  user,
	})
}

func (s *RESTServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, users)
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (s *RESTServer) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	if req.Name == "" {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("group name is required")))
		return
	}

	group, err := s.groups.Create(r.Context(), req.Name, req.Members)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, group)
}

func (s *RESTServer) handleGroupsForUser(w http.ResponseWriter, r *http.Request) {
	userId := mux.Vars(r)["userId"]

	groups, err := s.groups.GroupsForUser(r.Context(), userId)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, groups)
}

type createMessageRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver,omitempty"`
	GroupId  string `json:"groupId,omitempty"`
	Content  string `json:"content"`
}

func (s *RESTServer) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid request body")))
		return
	}

	if req.Sender == "" || req.Content == "" {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("sender and content are required")))
		return
	}

	if req.Receiver == "" && req.GroupId == "" {
		s.writeError(w, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("either receiver or groupId is required")))
		return
	}

	record, err := s.messages.Save(r.Context(), persistence.SaveMessageRequest{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		GroupId:  req.GroupId,
		Content:  req.Content,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *RESTServer) handlePrivateHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	records, err := s.messages.PrivateHistory(r.Context(), vars["user1"], vars["user2"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *RESTServer) handleGroupHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.messages.GroupHistory(r.Context(), mux.Vars(r)["groupId"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	var codedErr ierr.Error
	if errors.As(err, &codedErr) {
		status = codedErr.HTTPStatus()
		message = codedErr.Message
	} else {
		s.logger.Error("request failed", zap.Error(err))
	}

	s.writeJSON(w, status, map[string]string{"error": message})
}
