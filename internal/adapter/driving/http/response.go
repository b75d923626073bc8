package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/volt/internal/application"
	"github.com/ericfisherdev/volt/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ValidationResponse lists the rejected fields of a request.
type ValidationResponse struct {
	Error  string               `json:"error"`
	Fields []FieldErrorResponse `json:"fields"`
}

// FieldErrorResponse is a single rejected field.
type FieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PartialFailureResponse reports a subtree delete that stopped midway.
type PartialFailureResponse struct {
	Error     string `json:"error"`
	Deleted   int    `json:"deleted"`
	Remaining int    `json:"remaining"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// IDResponse returns the id of a created entity.
type IDResponse struct {
	ID int64 `json:"id"`
}

// CountResponse returns how many entities an operation affected.
type CountResponse struct {
	Count int `json:"count"`
}

// GroupResponse is the JSON representation of a group.
type GroupResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ParentID     *int64 `json:"parent_id"`
	IconID       *int64 `json:"icon_id"`
	IconName     string `json:"icon_name,omitempty"`
	IconProvider string `json:"icon_provider,omitempty"`
}

// CredentialResponse is the JSON representation of a credential record.
type CredentialResponse struct {
	ID        int64  `json:"id"`
	GroupID   *int64 `json:"group_id"`
	Title     string `json:"title"`
	SecretKey string `json:"secret_key"`
}

// CredentialDetailResponse is a credential record with its secret.
type CredentialDetailResponse struct {
	CredentialResponse
	Username string `json:"username"`
	Password string `json:"password"`
}

// IconResponse is the JSON representation of an icon.
type IconResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// AuditResponse is the JSON representation of an audit report.
type AuditResponse struct {
	Consistent      bool                 `json:"consistent"`
	SecretCount     int                  `json:"secret_count"`
	RecordCount     int                  `json:"record_count"`
	OrphanSecrets   []string             `json:"orphan_secrets"`
	DanglingRecords []CredentialResponse `json:"dangling_records"`
}

// CreateGroupRequest is the JSON body for the create group endpoint.
type CreateGroupRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	IconID   *int64 `json:"icon_id"`
}

// MoveGroupRequest is the JSON body for the move group endpoint.
type MoveGroupRequest struct {
	Name          string  `json:"name"`
	ParentID      *int64  `json:"parent_id"`
	CredentialIDs []int64 `json:"credential_ids"`
	TargetGroupID *int64  `json:"target_group_id"`
}

// CreateCredentialRequest is the JSON body for the create credential endpoint.
type CreateCredentialRequest struct {
	Title    string `json:"title"`
	GroupID  *int64 `json:"group_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateCredentialRequest is the JSON body for the update credential
// endpoint. GroupID is applied only when ChangeGroup is true.
type UpdateCredentialRequest struct {
	SecretKey   string `json:"secret_key"`
	Title       string `json:"title"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	ChangeGroup bool   `json:"change_group"`
	GroupID     *int64 `json:"group_id"`
}

// AddIconRequest is the JSON body for the add icon endpoint.
type AddIconRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

func toGroupResponse(g model.Group) GroupResponse {
	return GroupResponse{ID: g.ID, Name: g.Name, ParentID: g.ParentID, IconID: g.IconID}
}

func toGroupViewResponse(v model.GroupView) GroupResponse {
	resp := toGroupResponse(v.Group)
	resp.IconName = v.IconName
	resp.IconProvider = string(v.IconProvider)
	return resp
}

func toCredentialResponse(rec model.CredentialRecord) CredentialResponse {
	return CredentialResponse{ID: rec.ID, GroupID: rec.GroupID, Title: rec.Title, SecretKey: rec.SecretKey}
}

func toCredentialDetailResponse(c model.Credential) CredentialDetailResponse {
	return CredentialDetailResponse{
		CredentialResponse: toCredentialResponse(c.CredentialRecord),
		Username:           c.Username,
		Password:           c.Password,
	}
}

func toIconResponse(icon model.Icon) IconResponse {
	return IconResponse{ID: icon.ID, Name: icon.Name, Provider: string(icon.Provider)}
}

func toAuditResponse(r application.AuditReport) AuditResponse {
	orphans := r.OrphanSecrets
	if orphans == nil {
		orphans = []string{}
	}
	dangling := make([]CredentialResponse, 0, len(r.DanglingRecords))
	for _, rec := range r.DanglingRecords {
		dangling = append(dangling, toCredentialResponse(rec))
	}
	return AuditResponse{
		Consistent:      r.Consistent(),
		SecretCount:     r.SecretCount,
		RecordCount:     r.RecordCount,
		OrphanSecrets:   orphans,
		DanglingRecords: dangling,
	}
}

func toValidationResponse(err *model.ValidationError) ValidationResponse {
	fields := make([]FieldErrorResponse, 0, len(err.Errors))
	for _, fe := range err.Errors {
		fields = append(fields, FieldErrorResponse{Field: fe.Field, Message: fe.Message})
	}
	return ValidationResponse{Error: "validation failed", Fields: fields}
}
