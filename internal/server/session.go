package server

//go:generate go tool mockgen -destination=mocks/mock_session.go -package=mocks riftline/internal/server Session

// Session 房间看到的连接，房间只通过它发送数据
type Session interface {
	ID() int32
	Send(data []byte) error
	Close()
	CloseWithoutNotify()
	SetPlayerID(id int32)
	RoomID() string
	SetRoomID(id string)
}
