package flag

import "github.com/elC0mpa/egress-doctor/model"

type service struct{}

type FlagService interface {
	GetParsedFlags() (model.Flags, error)
}
