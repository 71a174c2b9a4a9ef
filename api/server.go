package api

import (
	"context"
	"errors"
	"math"

	"github.com/beka-birhanu/vinom-race-server/maze"
	"github.com/beka-birhanu/vinom-race-server/service"
	"github.com/beka-birhanu/vinom-race-server/service/i"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	roomManager i.RoomManager

	UnimplementedSessionServer
}

func RegisterNewSessionServer(gsr grpc.ServiceRegistrar, rm i.RoomManager) error {
	if rm == nil {
		return errors.New("room manager is nil")
	}
	server := &Server{
		roomManager: rm,
	}

	RegisterSessionServer(gsr, server)
	return nil
}

// NewRoom creates a room. Accepted fields: room, rows, cols, seed; all optional.
func (s *Server) NewRoom(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	fields := r.GetFields()
	spec := i.RoomSpec{ID: fields["room"].GetStringValue()}

	var err error
	if spec.Rows, err = uintField(fields, "rows"); err != nil {
		return nil, err
	}
	if spec.Cols, err = uintField(fields, "cols"); err != nil {
		return nil, err
	}
	if _, ok := fields["seed"]; ok {
		n, err := uintField(fields, "seed")
		if err != nil {
			return nil, err
		}
		seed := uint32(n)
		spec.Seed = &seed
	}

	info, err := s.roomManager.NewRoom(spec)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"room": info.ID,
		"seed": info.Seed,
		"rows": info.Rows,
		"cols": info.Cols,
	})
}

// RoomInfo describes a live room.
func (s *Server) RoomInfo(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	id := r.GetFields()["room"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "room is required")
	}

	info, err := s.roomManager.RoomInfo(id)
	if err != nil {
		return nil, toStatus(err)
	}

	players := make([]any, 0, len(info.Players))
	for _, p := range info.Players {
		players = append(players, map[string]any{
			"identity":  p.Identity,
			"avatarRef": p.AvatarRef,
			"row":       p.Row,
			"col":       p.Col,
		})
	}
	return structpb.NewStruct(map[string]any{
		"room":    info.ID,
		"seed":    info.Seed,
		"rows":    info.Rows,
		"cols":    info.Cols,
		"goalRow": info.GoalRow,
		"goalCol": info.GoalCol,
		"players": players,
		"winner":  info.Winner,
	})
}

// uintField reads an optional whole number that fits in 32 bits. Missing
// fields read as zero.
func uintField(fields map[string]*structpb.Value, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	if n.NumberValue < 0 || n.NumberValue > math.MaxUint32 || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number in [0, %d]", key, uint32(math.MaxUint32))
	}
	return int(n.NumberValue), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, maze.ErrDimensionTooSmall), errors.Is(err, maze.ErrEvenDimension),
		errors.Is(err, maze.ErrDimensionTooLarge), errors.Is(err, service.ErrNotBigEnoughDimension):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrRoomExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrManagerStopped):
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
