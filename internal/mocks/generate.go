package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Finalizer --dir ../domain/settlement --output domain/settlement --outpkg settlementmock --filename finalizer_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/notification --output domain/notification --outpkg notificationmock --filename publisher_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name JobQueue --dir ../usecase --output usecase --outpkg usecasemock --filename job_queue_mock.go
