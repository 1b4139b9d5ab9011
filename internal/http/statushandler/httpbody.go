package statushandler

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	App    string `json:"app"    example:"WebSocket Chat API"`
} // @name HealthResponse

type RoomResponse struct {
	Name    string `json:"name"    example:"lobby"`
	Members int    `json:"members" example:"3"`
} // @name RoomResponse
