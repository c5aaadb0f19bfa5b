package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"sync"

	"safescan/internal/db"
	"safescan/internal/models"
)

// NotifyService 检测完成邮件通知服务
type NotifyService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

var (
	notifyService *NotifyService
	notifyOnce    sync.Once
)

// GetNotifyService 获取通知服务单例
func GetNotifyService() *NotifyService {
	notifyOnce.Do(func() {
		notifyService = NewNotifyService()
	})
	return notifyService
}

func NewNotifyService() *NotifyService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("⚠️ NotifyService disabled: Missing SMTP environment variables.")
	}

	return &NotifyService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

// NotifyProductTested 条码检测完成后给所有未通知的订阅者发提醒。
// 每次 complete 迁移只调用一次；发送是异步尽力而为，失败只记日志。
func (s *NotifyService) NotifyProductTested(barcode, productName string) {
	var subs []models.Subscription
	if err := db.DB.Where("barcode = ? AND notified = ?", barcode, false).Find(&subs).Error; err != nil {
		log.Printf("查询条码 %s 订阅者失败: %v", barcode, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	emails := make([]string, 0, len(subs))
	for _, sub := range subs {
		emails = append(emails, sub.Email)
	}

	subject := fmt.Sprintf("🔬 检测结果出炉：%s", productName)
	body := fmt.Sprintf(`<html><body>
<p>您订阅的条码 <b>%s</b> 已完成实验室检测。</p>
<p>产品：<b>%s</b></p>
<p>现在就可以在 SafeScan 查看完整的成分评级报告。</p>
</body></html>`, barcode, productName)

	for _, email := range emails {
		s.sendAsync([]string{email}, subject, body)
	}

	// 标记已通知，避免重复打扰（发送本身是尽力而为）
	if err := db.DB.Model(&models.Subscription{}).
		Where("barcode = ?", barcode).
		UpdateColumn("notified", true).Error; err != nil {
		log.Printf("标记条码 %s 订阅已通知失败: %v", barcode, err)
	}
}

func (s *NotifyService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: SafeScan 通知 <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

		err := smtp.SendMail(addr, auth, s.From, to, msg)
		if err != nil {
			log.Printf("❌ Failed to send email to %v: %v", to, err)
		} else {
			log.Printf("✅ Email sent to %v: %s", to, subject)
		}
	}()
}
