package services

import "docshelf/repositories"

// TxManager runs fn inside one database transaction; a nil error commits.
type TxManager = repositories.TxManager
