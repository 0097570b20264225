package accounts

import "golang.org/x/crypto/bcrypt"

// UseMinCost lowers the bcrypt cost so tests run fast.
func (s *Service) UseMinCost() { s.cost = bcrypt.MinCost }
