package repository

import (
	"github.com/hems-edu/examgate/internal/model"
	"gorm.io/gorm"
)

type StudentRepository interface {
	// CreateWithUser persists the identity and its student record in one
	// transaction, so a failed student insert never leaves an orphan user
	// holding the email.
	CreateWithUser(user *model.User, student *model.Student) error
	FindByUserID(userID uint) (*model.Student, error)
	FindByIDNumber(idNumber string) (*model.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) CreateWithUser(user *model.User, student *model.Student) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		student.UserID = user.ID
		return tx.Create(student).Error
	})
}

func (r *studentRepository) FindByUserID(userID uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("user_id = ?", userID).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByIDNumber(idNumber string) (*model.Student, error) {
	var student model.Student
	if err := r.db.Where("id_number = ?", idNumber).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}
