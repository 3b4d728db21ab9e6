package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile 先写入同目录下的临时文件再重命名，目标文件要么是完整内容，要么保持原状
func WriteFile(path, content string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("保存文件失败: %w", err)
	}
	return nil
}

// DigestFilename 定时任务输出文件名
func DigestFilename(start, end string) string {
	return fmt.Sprintf("digest_%s_%s.txt", start, end)
}
