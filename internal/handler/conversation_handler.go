package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/attachment"
	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type ConversationHandler struct {
	svc service.ConversationService
}

func NewConversationHandler(svc service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ConversationResponse struct {
	Key            string `json:"key"`
	AnnouncementID string `json:"announcementId"`
	SellerUID      string `json:"sellerId"`
	BuyerUID       string `json:"buyerId"`
	LastMessageAt  string `json:"lastMessageAt,omitempty"`
	HasUnread      bool   `json:"hasUnread"`
}

type MessageRequest struct {
	RecipientID    string `json:"recipientId"`
	AnnouncementID string `json:"announcementId"`
	Text           string `json:"text"`
}

func keyParam(c echo.Context) convkey.Key {
	raw := c.Param("key")
	if k, err := url.PathUnescape(raw); err == nil {
		return convkey.Key(k)
	}
	return convkey.Key(raw)
}

func (h *ConversationHandler) Start(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	key, ann, err := h.svc.Start(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return serviceError(c, err, "announcement not found", "failed to start conversation")
	}
	return c.JSON(http.StatusOK, ConversationResponse{
		Key:            key.String(),
		AnnouncementID: ann.ID,
		SellerUID:      ann.OwnerUID,
		BuyerUID:       uid,
	})
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convs, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "", "failed to fetch conversations")
	}
	resp := make([]ConversationResponse, 0, len(convs))
	for _, cv := range convs {
		r := ConversationResponse{
			Key:            cv.Key,
			AnnouncementID: cv.AnnouncementID,
			SellerUID:      cv.SellerUID,
			BuyerUID:       cv.BuyerUID,
			HasUnread:      cv.HasUnread,
		}
		if !cv.LastMessageAt.IsZero() {
			r.LastMessageAt = cv.LastMessageAt.Format(time.RFC3339)
		}
		resp = append(resp, r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), keyParam(c), uid)
	if err != nil {
		return serviceError(c, err, "conversation not found", "failed to fetch messages")
	}
	return c.JSON(http.StatusOK, msgs)
}

// CreateMessage accepts either a JSON body or a multipart form with an
// optional "file" part.
func (h *ConversationHandler) CreateMessage(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	in := service.SendInput{SenderUID: uid}
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		in.Text = c.FormValue("text")
		in.RecipientUID = c.FormValue("recipientId")
		in.AnnouncementID = c.FormValue("announcementId")
		fh, err := c.FormFile("file")
		switch {
		case err == nil:
			att, err := readAttachment(fh)
			if err != nil {
				return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
			}
			in.Attachment = att
		case errors.Is(err, http.ErrMissingFile):
		default:
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid multipart form"))
		}
	} else {
		var req MessageRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
		}
		in.Text = req.Text
		in.RecipientUID = req.RecipientID
		in.AnnouncementID = req.AnnouncementID
	}

	msg, err := h.svc.SendMessage(c.Request().Context(), keyParam(c), in)
	if err != nil {
		return serviceError(c, err, "conversation not found", "failed to send message")
	}
	return c.JSON(http.StatusCreated, msg)
}

func readAttachment(fh *multipart.FileHeader) (*service.Attachment, error) {
	mediaType := fh.Header.Get(echo.HeaderContentType)
	if mediaType == "" || mediaType == echo.MIMEOctetStream {
		mediaType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	// size and type are re-checked by the service; this only avoids reading
	// an oversized part into memory
	if err := attachment.Validate(mediaType, fh.Size); err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, attachment.MaxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}
	return &service.Attachment{Filename: filepath.Base(fh.Filename), MediaType: mediaType, Body: body}, nil
}

func (h *ConversationHandler) DeleteMessage(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	msgID := c.Param("id")
	if msgID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid message id"))
	}
	if err := h.svc.DeleteMessage(c.Request().Context(), msgID, uid); err != nil {
		return serviceError(c, err, "message not found", "failed to delete message")
	}
	return statusOK(c)
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if err := h.svc.MarkRead(c.Request().Context(), keyParam(c), uid); err != nil {
		return serviceError(c, err, "conversation not found", "failed to mark read")
	}
	return statusOK(c)
}
