package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SessionCookie — имя cookie сессии API по умолчанию.
const SessionCookie = "zakaz_session"

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StatusResponse — статус каталога из API.
type StatusResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Description *string `json:"description"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

// ApplicationResponse — заявка из API.
type ApplicationResponse struct {
	ID                 string  `json:"id"`
	ApplicationNumber  int64   `json:"application_number"`
	Status             string  `json:"status"`
	CustomerFullName   string  `json:"customer_fullname"`
	AssignedTo         *string `json:"assigned_to"`
	TechnicalCuratorID *string `json:"technical_curator_id"`
	UpdatedAt          string  `json:"updated_at"`
}

// WorkOrderResponse — наряд из API.
type WorkOrderResponse struct {
	ID              string  `json:"id"`
	WorkOrderNumber int64   `json:"work_order_number"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	ActualStartAt   *string `json:"actual_start_at"`
	ActualEndAt     *string `json:"actual_end_at"`
	ResultNotes     *string `json:"result_notes"`
}

// AuditLogResponse — запись журнала аудита.
type AuditLogResponse struct {
	ID          string  `json:"id"`
	ActionType  string  `json:"action_type"`
	Description string  `json:"description"`
	UserName    *string `json:"user_name"`
	IPAddress   *string `json:"ip_address"`
	CreatedAt   string  `json:"created_at"`
}

// HistoryResponse — запись истории статусов.
type HistoryResponse struct {
	ID             string  `json:"id"`
	OldStatus      *string `json:"old_status"`
	NewStatus      string  `json:"new_status"`
	OldStatusLabel *string `json:"old_status_label"`
	NewStatusLabel string  `json:"new_status_label"`
	Comment        *string `json:"comment"`
	ChangedAt      string  `json:"changed_at"`
	User           *struct {
		FullName string `json:"full_name"`
	} `json:"user"`
}

// SessionUser — пользователь сессии.
type SessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// --- Request types ---

// StatusInput — создание или обновление статуса.
type StatusInput struct {
	Code        *string `json:"code,omitempty"`
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CompleteInput — отметка о выполнении наряда.
type CompleteInput struct {
	ResultNotes *string    `json:"result_notes,omitempty"`
	ActualEndAt *time.Time `json:"actual_end_at,omitempty"`
}

// --- API response wrappers ---

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// APIError — ошибка, возвращённая API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Details)
	}
	return e.Message
}

// --- Client ---

// Client — HTTP-клиент для Zakaz API.
type Client struct {
	baseURL    string
	session    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. session — значение cookie сессии, может быть пустым.
func NewClient(baseURL, session string) *Client {
	return &Client{
		baseURL: baseURL,
		session: session,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Statuses ---

// ListStatuses возвращает активные статусы, с all=true — все (нужна сессия администратора).
func (c *Client) ListStatuses(all bool) ([]StatusResponse, error) {
	path := "/api/statuses"
	if all {
		path = "/api/admin/statuses"
	}
	var resp struct {
		Statuses []StatusResponse `json:"statuses"`
	}
	err := c.get(path, &resp)
	return resp.Statuses, err
}

// CreateStatus добавляет статус в каталог.
func (c *Client) CreateStatus(in StatusInput) (*StatusResponse, error) {
	var resp struct {
		Status StatusResponse `json:"status"`
	}
	err := c.doJSON(http.MethodPost, "/api/admin/statuses", in, &resp)
	return &resp.Status, err
}

// UpdateStatus частично обновляет статус.
func (c *Client) UpdateStatus(id string, in StatusInput) (*StatusResponse, error) {
	var resp struct {
		Status StatusResponse `json:"status"`
	}
	err := c.doJSON(http.MethodPatch, "/api/admin/statuses/"+url.PathEscape(id), in, &resp)
	return &resp.Status, err
}

// DeactivateStatus выключает статус.
func (c *Client) DeactivateStatus(id string) (*StatusResponse, error) {
	var resp struct {
		Status StatusResponse `json:"status"`
	}
	err := c.doJSON(http.MethodDelete, "/api/admin/statuses/"+url.PathEscape(id), nil, &resp)
	return &resp.Status, err
}

// --- Applications ---

type applicationEnvelope struct {
	Application ApplicationResponse `json:"application"`
	Message     string              `json:"message"`
}

// ChangeApplicationStatus меняет статус заявки.
func (c *Client) ChangeApplicationStatus(id, status, comment string) (*ApplicationResponse, string, error) {
	body := map[string]string{"new_status": status, "comment": comment}
	var resp applicationEnvelope
	err := c.doJSON(http.MethodPost, "/api/applications/"+url.PathEscape(id)+"/status", body, &resp)
	return &resp.Application, resp.Message, err
}

// Assign назначает ответственного. Пустой userID снимает назначение.
func (c *Client) Assign(id, userID string) (*ApplicationResponse, string, error) {
	body := map[string]string{"assigned_to": userID}
	var resp applicationEnvelope
	err := c.doJSON(http.MethodPatch, "/api/applications/"+url.PathEscape(id)+"/assign", body, &resp)
	return &resp.Application, resp.Message, err
}

// AssignTechnicalCurator назначает технического куратора. Пустой userID снимает назначение.
func (c *Client) AssignTechnicalCurator(id, userID string) (*ApplicationResponse, string, error) {
	body := map[string]string{"technical_curator_id": userID}
	var resp applicationEnvelope
	err := c.doJSON(http.MethodPatch, "/api/applications/"+url.PathEscape(id)+"/technical-curator", body, &resp)
	return &resp.Application, resp.Message, err
}

// ApplicationLogs возвращает журнал аудита заявки.
func (c *Client) ApplicationLogs(id string) ([]AuditLogResponse, error) {
	var resp struct {
		Logs []AuditLogResponse `json:"logs"`
	}
	err := c.get("/api/applications/"+url.PathEscape(id)+"/logs", &resp)
	return resp.Logs, err
}

// ApplicationHistory возвращает историю статусов заявки.
func (c *Client) ApplicationHistory(id string) ([]HistoryResponse, error) {
	var resp struct {
		History []HistoryResponse `json:"history"`
	}
	err := c.get("/api/applications/"+url.PathEscape(id)+"/status-history", &resp)
	return resp.History, err
}

// --- Work orders ---

type workOrderEnvelope struct {
	WorkOrder WorkOrderResponse `json:"work_order"`
	Message   string            `json:"message"`
}

// ChangeWorkOrderStatus меняет статус наряда.
func (c *Client) ChangeWorkOrderStatus(id, status, comment string) (*WorkOrderResponse, error) {
	body := map[string]string{"status": status, "comment": comment}
	var resp workOrderEnvelope
	err := c.doJSON(http.MethodPatch, "/api/work-orders/"+url.PathEscape(id)+"/status", body, &resp)
	return &resp.WorkOrder, err
}

// CompleteWorkOrder отмечает наряд выполненным.
func (c *Client) CompleteWorkOrder(id string, in CompleteInput) (*WorkOrderResponse, error) {
	var resp workOrderEnvelope
	err := c.doJSON(http.MethodPost, "/api/work-orders/"+url.PathEscape(id)+"/complete", in, &resp)
	return &resp.WorkOrder, err
}

// WorkOrderHistory возвращает историю статусов наряда.
func (c *Client) WorkOrderHistory(id string) ([]HistoryResponse, error) {
	var resp struct {
		History []HistoryResponse `json:"history"`
	}
	err := c.get("/api/work-orders/"+url.PathEscape(id)+"/history", &resp)
	return resp.History, err
}

// --- Auth ---

// Login выполняет вход и возвращает значение cookie сессии.
func (c *Client) Login(email, password string) (string, *SessionUser, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(http.MethodPost, "/api/auth/login", body)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return "", nil, err
	}

	var sr struct {
		User SessionUser `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			c.session = ck.Value
			return ck.Value, &sr.User, nil
		}
	}
	return "", nil, fmt.Errorf("no %s cookie in login response", SessionCookie)
}

// Logout закрывает текущую сессию.
func (c *Client) Logout() error {
	return c.doJSON(http.MethodPost, "/api/auth/logout", nil, nil)
}

// Session возвращает пользователя текущей сессии.
func (c *Client) Session() (*SessionUser, error) {
	var resp struct {
		User SessionUser `json:"user"`
	}
	err := c.get("/api/auth/session", &resp)
	return &resp.User, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doJSON(http.MethodGet, path, nil, result)
}

func (c *Client) doJSON(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: c.session})
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("API error: HTTP %d", resp.StatusCode)}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: er.Error, Details: er.Details}
}
