package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

const qrSize = 320

// roomInfo is lifecycle metadata only; the board is never exposed here.
type roomInfo struct {
	Code    string       `json:"code"`
	State   entity.State `json:"state"`
	Players int          `json:"players"`
}

func (that *Server) RoomHandler(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	log := that.logger.With("method", "RoomHandler")

	snapshot, ok := that.lookup(w, params)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(roomInfo{
		Code:    snapshot.Code,
		State:   snapshot.State,
		Players: snapshot.Players,
	}); err != nil {
		log.Error("failed to write response", "error", err)
	}
}

// QRHandler renders a PNG pointing players at the join link of a room.
func (that *Server) QRHandler(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	log := that.logger.With("method", "QRHandler")

	snapshot, ok := that.lookup(w, params)
	if !ok {
		return
	}

	png, err := qrcode.Encode(that.JoinURL(snapshot.Code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error("failed to generate qr code", "code", snapshot.Code, "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (that *Server) JoinURL(code string) string {
	return strings.TrimSuffix(that.publicURL, "/") + "/?room=" + url.QueryEscape(code)
}

func (that *Server) lookup(w http.ResponseWriter, params httprouter.Params) (entity.RoomSnapshot, bool) {
	code := pkg.NormalizeRoomCode(params.ByName("code"))

	snapshot, err := that.rooms.Room(code)
	if err == nil {
		return snapshot, true
	}

	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
	} else {
		that.logger.Error("failed to get room", "code", code, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	return entity.RoomSnapshot{}, false
}
