package core

//go:generate mockgen -destination=mocks/mock_core.go -package=mocks github.com/dkeye/Duet/internal/core MediaCapture,MediaHandle,Rendezvous
