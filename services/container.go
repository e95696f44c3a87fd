package services

import "docshelf/repositories"

type Container struct {
	User       UserService
	Folder     FolderService
	Document   DocumentService
	Activity   ActivityService
	Stats      StatsService
	Share      ShareService
	Favorite   FavoriteService
	Permission PermissionService
	Cleanup    CleanupService
	Health     HealthService
}

func NewContainer(repos repositories.Container, store FileStore) *Container {
	activity := NewActivityService(repos.Activities)
	container := &Container{
		User:       NewUserService(repos.Users),
		Folder:     NewFolderService(repos.TxManager, repos.Folders, repos.Documents, repos.Shares, repos.Permissions, activity, store),
		Document:   NewDocumentService(repos.TxManager, repos.Folders, repos.Documents, repos.Shares, repos.Permissions, activity, store),
		Activity:   activity,
		Stats:      NewStatsService(repos.Documents, repos.StatsCache),
		Share:      NewShareService(repos.TxManager, repos.Documents, repos.Shares, activity, store),
		Favorite:   NewFavoriteService(repos.Documents, repos.Favorites, activity),
		Permission: NewPermissionService(repos.TxManager, repos.Documents, repos.Permissions, activity),
		Cleanup:    NewCleanupService(repos.Documents, repos.Shares, store),
		Health:     NewHealthService(repos.Pingers),
	}
	SetCleanupService(container.Cleanup)
	return container
}
