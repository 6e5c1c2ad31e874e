package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"chatService/configs"
	"chatService/internal/enums"
	"chatService/internal/logger"
)

// MinioService stores out-of-band media (image/file message content) and
// returns the public URL clients put into the message body.
type MinioService struct {
	minioClient *minio.Client
	config      *configs.Config
	log         zerolog.Logger
}

var (
	minioService *MinioService
	minioOnce    sync.Once
)

func NewMinioService(config *configs.Config) (*MinioService, error) {
	var initErr error
	minioOnce.Do(func() {
		endpoint := config.Viper.GetString("minio.endpoint")
		accessKeyID := config.Viper.GetString("minio.access_key_id")
		secretAccessKey := config.Viper.GetString("minio.secret_access_key")
		useSSL := config.Viper.GetBool("minio.use_ssl")

		minioClient, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
			Secure: useSSL,
		})
		if err != nil {
			initErr = err
			return
		}

		log := logger.For("minio")

		bucketName := enums.FILE_BUCKET_ATTACHMENTS
		err = minioClient.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
		if err != nil {
			exists, errBucketExists := minioClient.BucketExists(context.Background(), bucketName)
			if errBucketExists != nil || !exists {
				initErr = err
				return
			}
		} else {
			log.Info().Str("bucket", bucketName).Msg("bucket created")
		}

		minioService = &MinioService{
			minioClient: minioClient,
			config:      config,
			log:         log,
		}
	})
	if minioService == nil {
		if initErr == nil {
			initErr = fmt.Errorf("minio service is not initialized")
		}
		return nil, initErr
	}
	return minioService, nil
}

func (ms *MinioService) UploadFile(fileName string, file io.Reader, fileSize int64, contentType string, bucketName string) (string, error) {
	info, err := ms.minioClient.PutObject(context.Background(), bucketName, fileName, file, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		ms.log.Error().Err(err).Str("bucket", bucketName).Msg("upload failed")
		return "", err
	}
	return ms.publicFileUrl(bucketName, info.Key), nil
}

func (ms *MinioService) publicFileUrl(bucketName, fileKey string) string {
	externalEndpoint := ms.config.Viper.GetString("minio.external_endpoint")
	return fmt.Sprintf("http://%s/%s/%s", externalEndpoint, bucketName, fileKey)
}
