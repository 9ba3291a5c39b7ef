package postgres

import (
	"nlnotes/internal/notes/ports/repositories"
)

// RepositoryFactory создает репозитории для работы с базой данных.
type RepositoryFactory struct {
	userRepo repositories.UserRepository
	uow      repositories.UnitOfWork
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(pool PgxPoolInterface) *RepositoryFactory {
	return &RepositoryFactory{
		userRepo: NewUserRepository(pool),
		uow:      NewUnitOfWork(pool),
	}
}

// UserRepository возвращает репозиторий пользователей.
func (f *RepositoryFactory) UserRepository() repositories.UserRepository {
	return f.userRepo
}

// UnitOfWork возвращает единицу работы для операций с заметками.
func (f *RepositoryFactory) UnitOfWork() repositories.UnitOfWork {
	return f.uow
}
